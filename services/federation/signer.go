package federation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signer computes the shared-secret signature a tenant website verifies on
// federated calls. No freshness window is enforced here; replay protection
// is the remote side's concern.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 of "{timestamp}:{path}:{query}:{body}".
func (s *Signer) Sign(timestamp, path, query, body string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%s:%s:%s", timestamp, path, query, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(timestamp, path, query, body, signature string) bool {
	expected := s.Sign(timestamp, path, query, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
