package domainutil

import (
	"net/url"
	"strings"
)

// ExtractDomain canonicalises a URL or bare domain into a lowercase hostname.
// Every domain comparison in the system goes through this function, on both
// sides, so scheme, case and path differences never matter. It never fails:
// unparseable input is returned lowercased as-is.
func ExtractDomain(input string) string {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.HasPrefix(candidate, "http") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(raw)
	}

	return strings.ToLower(u.Hostname())
}

// Equal reports whether two URL-or-domain inputs refer to the same canonical
// hostname. Exact match only; subdomains are distinct.
func Equal(a, b string) bool {
	return ExtractDomain(a) == ExtractDomain(b)
}
