package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/services/tenant"
)

const usersPath = "/api/admin/users"

// FetchQuery narrows a federated user listing. Cursor is the opaque token
// returned by the previous page; the caller drives pagination.
type FetchQuery struct {
	Limit        int
	Cursor       string
	Q            string
	UpdatedSince string
}

type PageMeta struct {
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// UsersPage is the tenant API response passed through verbatim; user
// objects are not reshaped on the way out.
type UsersPage struct {
	Data       []json.RawMessage `json:"data"`
	NextCursor *string           `json:"nextCursor,omitempty"`
	Pagination *PageMeta         `json:"pagination,omitempty"`
}

// Client issues signed outbound requests to tenant APIs. No caching, no
// retries; one request per call.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Federation.Timeout},
		userAgent: cfg.Federation.UserAgent,
	}
}

// checkEligibility fails fast, before any network call, with a distinct
// message per missing precondition.
func checkEligibility(record *tenant.Tenant) error {
	if record.APIStatus != tenant.APIActive {
		return errutil.BadRequest(fmt.Sprintf("client API is %s", record.APIStatus))
	}
	if strings.TrimSpace(record.APIBaseURL) == "" {
		return errutil.BadRequest("client has no API base URL configured")
	}
	if record.AuthType != tenant.AuthHMAC || record.APIKey == "" {
		return errutil.BadRequest("client has unsupported or missing API auth")
	}
	return nil
}

func (c *Client) FetchUsers(ctx context.Context, record *tenant.Tenant, q FetchQuery) (*UsersPage, error) {
	if err := checkEligibility(record); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(strings.TrimRight(record.APIBaseURL, "/") + usersPath)
	if err != nil {
		return nil, errutil.BadRequest("client API base URL is not a valid URL", errutil.WithErr(err))
	}

	values := url.Values{}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	}
	if q.Q != "" {
		values.Set("q", q.Q)
	}
	if q.UpdatedSince != "" {
		values.Set("updated_since", q.UpdatedSince)
	}
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errutil.Internal("failed to build tenant API request", errutil.WithErr(err))
	}

	// signature covers the path and query of this exact URL, empty body
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := NewSigner(record.APIKey).Sign(timestamp, endpoint.Path, endpoint.RawQuery, "")

	req.Header.Set("x-timestamp", timestamp)
	req.Header.Set("x-signature", signature)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errutil.BadGateway("tenant API unreachable", errutil.WithErr(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errutil.BadGateway("failed to read tenant API response", errutil.WithErr(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errutil.BadGateway(fmt.Sprintf(
			"tenant API returned %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)),
		))
	}

	var page UsersPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errutil.BadGateway("tenant API returned malformed JSON", errutil.WithErr(err))
	}

	return &page, nil
}
