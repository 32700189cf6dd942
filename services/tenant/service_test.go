package tenant

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db/option"
	"commercehub-adminpanel/pkg/db/pagination"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/repository"
	"commercehub-adminpanel/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

var licenseKeyRe = regexp.MustCompile(`^LIC(-[0-9A-F]{4}){6}$`)
var apiKeyRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Tenant{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Config: &config.Config{},
	})
}

func createClient(t *testing.T, s *Service, name, websiteURL string) *Tenant {
	t.Helper()

	end := time.Now().Add(30 * 24 * time.Hour)
	record, _, err := s.Create(context.Background(), &CreateRequest{
		CompanyName:         name,
		WebsiteURL:          websiteURL,
		SubscriptionType:    string(SubscriptionMonthly),
		SubscriptionEndDate: &end,
	})
	require.NoError(t, err)
	return record
}

func TestCreateClient(t *testing.T) {
	s := newTestService(t)

	end := time.Now().Add(365 * 24 * time.Hour)
	record, setup, err := s.Create(context.Background(), &CreateRequest{
		CompanyName:         "Acme Store",
		WebsiteURL:          "HTTPS://Shop.Acme.COM/store",
		SubscriptionType:    string(SubscriptionYearly),
		SubscriptionEndDate: &end,
	})
	require.NoError(t, err)

	require.Regexp(t, licenseKeyRe, record.LicenseKey)
	require.Regexp(t, apiKeyRe, record.APIKey)
	require.Equal(t, "shop.acme.com", record.WebsiteDomain)
	require.Equal(t, "acme-store", record.Slug)
	require.Equal(t, StatusActive, record.Status)
	require.Equal(t, SubscriptionActive, record.SubscriptionStatus)
	require.Equal(t, AuthHMAC, record.AuthType)
	require.Equal(t, APIActive, record.APIStatus)

	// plaintext secrets are handed out exactly once
	require.Equal(t, record.LicenseKey, setup.LicenseKey)
	require.Equal(t, record.APIKey, setup.APIKey)

	view := record.ToView()
	require.NotEqual(t, record.APIKey, view.APIKeyMasked)
	require.Contains(t, view.APIKeyMasked, record.APIKey[len(record.APIKey)-4:])
}

func TestCreateClientDuplicateDomain(t *testing.T) {
	s := newTestService(t)

	createClient(t, s, "First", "https://shop.example.com")

	end := time.Now().Add(24 * time.Hour)
	_, _, err := s.Create(context.Background(), &CreateRequest{
		CompanyName:         "Second",
		WebsiteURL:          "shop.example.com",
		SubscriptionEndDate: &end,
	})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Code)
}

func TestCreateClientRequiresEndDate(t *testing.T) {
	s := newTestService(t)

	_, _, err := s.Create(context.Background(), &CreateRequest{
		CompanyName:      "No End",
		WebsiteURL:       "https://noend.example.com",
		SubscriptionType: string(SubscriptionMonthly),
	})
	require.Error(t, err)

	// lifetime needs no end date
	record, _, err := s.Create(context.Background(), &CreateRequest{
		CompanyName:      "Forever",
		WebsiteURL:       "https://forever.example.com",
		SubscriptionType: string(SubscriptionLifetime),
	})
	require.NoError(t, err)
	require.Nil(t, record.SubscriptionEndDate)
}

func TestToggleStatusEnableReactivatesOnlyCancelled(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Cancelled Co", "https://cancelled.example.com")
	require.NoError(t, s.repo.Update(ctx, record.ID, map[string]any{
		"status":              StatusSuspended,
		"subscription_status": SubscriptionCancelled,
	}))

	updated, err := s.ToggleStatus(ctx, record.ID, ActionEnable, "")
	require.NoError(t, err)
	require.Equal(t, StatusActive, updated.Status)
	require.Equal(t, SubscriptionActive, updated.SubscriptionStatus)

	// an expired subscription is not resurrected by enabling the account
	expired := createClient(t, s, "Expired Co", "https://expired.example.com")
	require.NoError(t, s.repo.Update(ctx, expired.ID, map[string]any{
		"status":              StatusSuspended,
		"subscription_status": SubscriptionExpired,
	}))

	updated, err = s.ToggleStatus(ctx, expired.ID, ActionEnable, "")
	require.NoError(t, err)
	require.Equal(t, StatusActive, updated.Status)
	require.Equal(t, SubscriptionExpired, updated.SubscriptionStatus)
}

func TestToggleStatusSuspend(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Suspend Co", "https://suspend.example.com")

	updated, err := s.ToggleStatus(ctx, record.ID, ActionSuspend, "chargeback")
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, updated.Status)
	require.Equal(t, SubscriptionSuspended, updated.SubscriptionStatus)
	require.Contains(t, updated.Notes, "suspend: chargeback")
}

func TestToggleStatusDisableLeavesSubscription(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Disable Co", "https://disable.example.com")

	updated, err := s.ToggleStatus(ctx, record.ID, ActionDisable, "")
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, updated.Status)
	require.Equal(t, SubscriptionActive, updated.SubscriptionStatus)
}

func TestToggleStatusUnknownAction(t *testing.T) {
	s := newTestService(t)

	record := createClient(t, s, "Bad Action", "https://badaction.example.com")

	_, err := s.ToggleStatus(context.Background(), record.ID, ToggleAction("archive"), "")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusBadRequest, base.Code)
}

func TestRegenerateLicenseKey(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Regen License", "https://regen.example.com")
	oldKey := record.LicenseKey

	updated, setup, err := s.RegenerateLicenseKey(ctx, record.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldKey, updated.LicenseKey)
	require.Regexp(t, licenseKeyRe, updated.LicenseKey)
	require.Equal(t, updated.LicenseKey, setup.LicenseKey)
	require.Contains(t, updated.Notes, oldKey)
}

func TestRegenerateAPIKey(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Regen API", "https://regenapi.example.com")
	require.NoError(t, s.repo.Update(ctx, record.ID, map[string]any{"api_status": APIPaused}))
	oldKey := record.APIKey

	updated, setup, err := s.RegenerateAPIKey(ctx, record.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldKey, updated.APIKey)
	require.Regexp(t, apiKeyRe, updated.APIKey)
	require.Equal(t, updated.APIKey, setup.APIKey)
	require.Equal(t, APIActive, updated.APIStatus)

	// the shared secret never lands in the notes trail
	require.NotContains(t, updated.Notes, oldKey)
	require.NotContains(t, updated.Notes, updated.APIKey)
}

func TestUpdateRecanonicalizesDomain(t *testing.T) {
	s := newTestService(t)

	record := createClient(t, s, "Mover", "https://old.example.com")

	newURL := "HTTP://New.Example.COM/shop"
	updated, err := s.Update(context.Background(), record.ID, &UpdateRequest{
		WebsiteURL: &newURL,
	})
	require.NoError(t, err)
	require.Equal(t, newURL, updated.WebsiteURL)
	require.Equal(t, "new.example.com", updated.WebsiteDomain)
}

func TestLookupByDomain(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Lookup Co", "https://lookup.example.com")

	matches, err := s.LookupByDomain(ctx, "https://Lookup.Example.com/")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, record.ID, matches[0].ID)

	// contains fallback when no exact canonical match
	matches, err = s.LookupByDomain(ctx, "lookup.example")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, record.ID, matches[0].ID)
}

func TestListPagination(t *testing.T) {
	s := newTestService(t)

	createClient(t, s, "One", "https://one.example.com")
	createClient(t, s, "Two", "https://two.example.com")
	createClient(t, s, "Three", "https://three.example.com")

	records, pageInfo, err := s.List(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextCursor)
}

func TestDeleteClient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record := createClient(t, s, "Gone Co", "https://gone.example.com")

	require.NoError(t, s.Delete(ctx, record.ID))

	_, err := s.Get(ctx, record.ID)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

// collisionRepo reports every candidate license key as already taken.
type collisionRepo struct {
	repository.Repository[Tenant]
	attempts int
}

func (r *collisionRepo) FindOne(ctx context.Context, query *Tenant, opts ...option.QueryOption) (*Tenant, error) {
	r.attempts++
	return &Tenant{ID: "taken"}, nil
}

func TestGenerateUniqueLicenseKeyExhausts(t *testing.T) {
	s := newTestService(t)

	mock := &collisionRepo{Repository: s.repo}
	s.repo = mock

	_, err := s.generateUniqueLicenseKey(context.Background())
	require.Error(t, err)
	require.Equal(t, maxKeyAttempts, mock.attempts)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusKeyGenerationExhausted, base.Code)
	require.Equal(t, http.StatusInternalServerError, base.Code.HTTPStatus())
	require.Contains(t, base.Message, "unique license key")
}
