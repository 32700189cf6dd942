package federation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/services/tenant"
	"commercehub-adminpanel/services/testutil"

	"github.com/stretchr/testify/require"
)

const testAPIKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Federation.UserAgent = "CommerceHub-AdminPanel/1.0"
	cfg.Federation.Timeout = 5 * time.Second
	return cfg
}

func newTestClient() *Client {
	return NewClient(newTestConfig())
}

func eligibleTenant(baseURL string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:         "2001",
		APIBaseURL: baseURL,
		AuthType:   tenant.AuthHMAC,
		APIKey:     testAPIKey,
		APIStatus:  tenant.APIActive,
	}
}

func TestFetchUsersSignsRequest(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.Equal(t, "/api/admin/users", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		require.Equal(t, "abc", r.URL.Query().Get("cursor"))
		require.Equal(t, "CommerceHub-AdminPanel/1.0", r.UserAgent())

		timestamp := r.Header.Get("x-timestamp")
		signature := r.Header.Get("x-signature")
		require.NotEmpty(t, timestamp)
		require.True(t, NewSigner(testAPIKey).Verify(timestamp, r.URL.Path, r.URL.RawQuery, "", signature))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"u1","email":"a@example.com"}],"nextCursor":"def","pagination":{"limit":5,"hasMore":true}}`))
	}))
	defer srv.Close()

	page, err := newTestClient().FetchUsers(context.Background(), eligibleTenant(srv.URL), FetchQuery{
		Limit:  5,
		Cursor: "abc",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
	require.Len(t, page.Data, 1)
	require.JSONEq(t, `{"id":"u1","email":"a@example.com"}`, string(page.Data[0]))
	require.NotNil(t, page.NextCursor)
	require.Equal(t, "def", *page.NextCursor)
	require.True(t, page.Pagination.HasMore)
}

func TestFetchUsersPausedMakesNoNetworkCall(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	record := eligibleTenant(srv.URL)
	record.APIStatus = tenant.APIPaused

	_, err := newTestClient().FetchUsers(context.Background(), record, FetchQuery{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "paused")
	require.Equal(t, int64(0), calls.Load())
}

func TestFetchUsersEligibilityMessagesDiffer(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	noBase := eligibleTenant("")
	_, err := c.FetchUsers(ctx, noBase, FetchQuery{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "base URL")

	badAuth := eligibleTenant("https://tenant.example.com")
	badAuth.APIKey = ""
	_, err = c.FetchUsers(ctx, badAuth, FetchQuery{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth")
}

func TestFetchUsersNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance window"))
	}))
	defer srv.Close()

	_, err := newTestClient().FetchUsers(context.Background(), eligibleTenant(srv.URL), FetchQuery{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "Service Unavailable")
	require.Contains(t, err.Error(), "maintenance window")
}

func newTestService(t *testing.T, baseURL string) (*Service, *tenant.Tenant) {
	t.Helper()

	db := testutil.NewTestDB(t, &tenant.Tenant{})

	record := eligibleTenant(baseURL)
	record.CompanyName = "Acme Store"
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	require.NoError(t, db.Create(record).Error)

	s := NewService(ServiceParams{
		DB:     db,
		Config: newTestConfig(),
	})

	return s, record
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	s, record := newTestService(t, srv.URL)
	ctx := context.Background()

	ok, err := s.TestConnection(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := s.repo.FindOne(ctx, &tenant.Tenant{ID: record.ID})
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeenAt)
}

func TestTestConnectionSwallowsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, record := newTestService(t, srv.URL)
	ctx := context.Background()

	ok, err := s.TestConnection(ctx, record.ID)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := s.repo.FindOne(ctx, &tenant.Tenant{ID: record.ID})
	require.NoError(t, err)
	require.Nil(t, stored.LastSeenAt)
}

func TestFetchUsersUnknownClient(t *testing.T) {
	s, _ := newTestService(t, "https://tenant.example.com")

	_, err := s.FetchUsers(context.Background(), "9999", FetchQuery{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
