package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db/option"
	"commercehub-adminpanel/pkg/db/pagination"
	"commercehub-adminpanel/pkg/domainutil"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/rediskey"
	"commercehub-adminpanel/pkg/repository"
	"commercehub-adminpanel/pkg/security"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxKeyAttempts bounds the license-key uniqueness retry loop.
const maxKeyAttempts = 10

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	rdb    *redis.Client
	config *config.Config
	repo   repository.Repository[Tenant]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Redis  *redis.Client `optional:"true"`
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		rdb:    p.Redis,
		config: p.Config,
		repo:   repository.ProvideStore[Tenant](p.DB),
	}
}

type CreateRequest struct {
	CompanyName           string         `json:"companyName" binding:"required"`
	Contact               datatypes.JSON `json:"contact"`
	WebsiteURL            string         `json:"websiteUrl" binding:"required"`
	SubscriptionType      string         `json:"subscriptionType"`
	SubscriptionStartDate *time.Time     `json:"subscriptionStartDate"`
	SubscriptionEndDate   *time.Time     `json:"subscriptionEndDate"`
	APIBaseURL            string         `json:"apiBaseUrl"`
}

// SetupInstructions carries the one-time plaintext secrets returned exactly
// once, at creation or regeneration.
type SetupInstructions struct {
	LicenseKey string `json:"licenseKey,omitempty"`
	APIKey     string `json:"apiKey,omitempty"`
	Message    string `json:"message"`
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Tenant, *SetupInstructions, error) {
	zapLog := s.logger(ctx)

	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.WebsiteURL) == "" {
		return nil, nil, errutil.BadRequest("companyName and websiteUrl are required")
	}

	subType := SubscriptionType(req.SubscriptionType)
	if req.SubscriptionType == "" {
		subType = SubscriptionMonthly
	}
	if subType.String() == "" {
		return nil, nil, errutil.BadRequest(fmt.Sprintf("unknown subscription type %q", req.SubscriptionType))
	}

	if subType != SubscriptionLifetime && req.SubscriptionEndDate == nil {
		return nil, nil, errutil.BadRequest("subscriptionEndDate is required unless subscription is lifetime")
	}

	domain := domainutil.ExtractDomain(req.WebsiteURL)

	exist, err := s.repo.FindOne(ctx, &Tenant{WebsiteDomain: domain})
	if err != nil {
		zapLog.Error("failed query client by domain", zap.Error(err))
		return nil, nil, errutil.Internal("failed to check existing client")
	}
	if exist != nil {
		zapLog.Warn("client already exists for domain", zap.String("domain", domain))
		return nil, nil, errutil.Conflict("a client already exists for this domain")
	}

	licenseKey, err := s.generateUniqueLicenseKey(ctx)
	if err != nil {
		return nil, nil, err
	}

	apiKey, err := security.GenerateAPIKey()
	if err != nil {
		zapLog.Error("failed to generate api key", zap.Error(err))
		return nil, nil, errutil.Internal("failed to generate api key")
	}

	now := time.Now()
	startDate := req.SubscriptionStartDate
	if startDate == nil {
		startDate = &now
	}

	record := &Tenant{
		ID:                    s.node.Generate().String(),
		CompanyName:           req.CompanyName,
		Slug:                  slug.Make(req.CompanyName),
		Contact:               req.Contact,
		WebsiteURL:            req.WebsiteURL,
		WebsiteDomain:         domain,
		LicenseKey:            licenseKey,
		Status:                StatusActive,
		SubscriptionType:      subType,
		SubscriptionStatus:    SubscriptionActive,
		SubscriptionStartDate: startDate,
		SubscriptionEndDate:   req.SubscriptionEndDate,
		APIBaseURL:            req.APIBaseURL,
		AuthType:              AuthHMAC,
		APIKey:                apiKey,
		APIStatus:             APIActive,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create client", zap.Error(err))
		return nil, nil, errutil.Internal("failed to create client")
	}

	zapLog.Info("client created",
		zap.String("client_id", record.ID),
		zap.String("domain", record.WebsiteDomain),
	)

	setup := &SetupInstructions{
		LicenseKey: licenseKey,
		APIKey:     apiKey,
		Message:    "Store the license key in the website configuration and the API key in the website's federation settings. The API key will not be shown again.",
	}

	return record, setup, nil
}

func (s *Service) List(ctx context.Context, p pagination.Pagination) ([]*Tenant, *pagination.PageInfo, error) {
	zapLog := s.logger(ctx)

	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	// over-fetch one row to decide has_more
	records, err := s.repo.Find(ctx, &Tenant{}, option.ApplyPagination(pagination.Pagination{
		Cursor: p.Cursor,
		Limit:  limit + 1,
	}))
	if err != nil {
		zapLog.Error("failed to list clients", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list clients")
	}

	pageInfo := pagination.BuildCursorPageInfo(records, limit, func(t *Tenant) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        t.ID,
		})
		return cursor
	})

	if len(records) > limit {
		records = records[:limit]
	}

	return records, pageInfo, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	zapLog := s.logger(ctx)

	if strings.TrimSpace(id) == "" {
		return nil, errutil.BadRequest("client id is required")
	}

	record, err := s.repo.FindOne(ctx, &Tenant{ID: id})
	if err != nil {
		zapLog.Error("failed query client by id", zap.Error(err))
		return nil, errutil.Internal("failed to get client")
	}
	if record == nil {
		return nil, errutil.NotFound("client not found")
	}

	return record, nil
}

func (s *Service) GetByLicenseKey(ctx context.Context, licenseKey string) (*Tenant, error) {
	record, err := s.repo.FindOne(ctx, &Tenant{LicenseKey: licenseKey})
	if err != nil {
		s.logger(ctx).Error("failed query client by license key", zap.Error(err))
		return nil, errutil.Internal("failed to get client")
	}
	if record == nil {
		return nil, errutil.NotFound("client not found")
	}

	return record, nil
}

// LookupByDomain resolves a domain to its client: exact canonical match
// first, then a contains search as a diagnostic fallback.
func (s *Service) LookupByDomain(ctx context.Context, domain string) ([]*Tenant, error) {
	zapLog := s.logger(ctx)

	canonical := domainutil.ExtractDomain(domain)
	if canonical == "" {
		return nil, errutil.BadRequest("domain is required")
	}

	exact, err := s.repo.FindOne(ctx, &Tenant{WebsiteDomain: canonical})
	if err != nil {
		zapLog.Error("failed domain lookup", zap.Error(err))
		return nil, errutil.Internal("failed to look up domain")
	}
	if exact != nil {
		return []*Tenant{exact}, nil
	}

	matches, err := s.repo.Find(ctx, &Tenant{},
		option.Where("website_domain LIKE ?", "%"+canonical+"%"),
		option.Limit(20),
	)
	if err != nil {
		zapLog.Error("failed domain contains lookup", zap.Error(err))
		return nil, errutil.Internal("failed to look up domain")
	}

	return matches, nil
}

type UpdateRequest struct {
	CompanyName           *string        `json:"companyName"`
	Contact               datatypes.JSON `json:"contact"`
	WebsiteURL            *string        `json:"websiteUrl"`
	SubscriptionType      *string        `json:"subscriptionType"`
	SubscriptionStatus    *string        `json:"subscriptionStatus"`
	SubscriptionStartDate *time.Time     `json:"subscriptionStartDate"`
	SubscriptionEndDate   *time.Time     `json:"subscriptionEndDate"`
	APIBaseURL            *string        `json:"apiBaseUrl"`
	APIStatus             *string        `json:"apiStatus"`
}

func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*Tenant, error) {
	zapLog := s.logger(ctx)

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}

	if req.CompanyName != nil {
		values["company_name"] = *req.CompanyName
	}
	if req.Contact != nil {
		values["contact"] = req.Contact
	}
	if req.WebsiteURL != nil {
		values["website_url"] = *req.WebsiteURL
		values["website_domain"] = domainutil.ExtractDomain(*req.WebsiteURL)
	}
	if req.SubscriptionType != nil {
		t := SubscriptionType(*req.SubscriptionType)
		if t.String() == "" {
			return nil, errutil.BadRequest(fmt.Sprintf("unknown subscription type %q", *req.SubscriptionType))
		}
		values["subscription_type"] = t
	}
	if req.SubscriptionStatus != nil {
		st := SubscriptionStatus(*req.SubscriptionStatus)
		if st.String() == "" {
			return nil, errutil.BadRequest(fmt.Sprintf("unknown subscription status %q", *req.SubscriptionStatus))
		}
		values["subscription_status"] = st
	}
	if req.SubscriptionStartDate != nil {
		values["subscription_start_date"] = req.SubscriptionStartDate
	}
	if req.SubscriptionEndDate != nil {
		values["subscription_end_date"] = req.SubscriptionEndDate
	}
	if req.APIBaseURL != nil {
		values["api_base_url"] = *req.APIBaseURL
	}
	if req.APIStatus != nil {
		st := APIStatus(*req.APIStatus)
		if st != APIActive && st != APIPaused {
			return nil, errutil.BadRequest(fmt.Sprintf("unknown api status %q", *req.APIStatus))
		}
		values["api_status"] = st
	}

	if len(values) == 0 {
		return record, nil
	}

	values["updated_at"] = time.Now()

	if err := s.repo.Update(ctx, id, values); err != nil {
		zapLog.Error("failed to update client", zap.Error(err), zap.String("client_id", id))
		return nil, errutil.Internal("failed to update client")
	}

	s.invalidateCheckCache(ctx, record)

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated.WebsiteDomain != record.WebsiteDomain {
		s.invalidateCheckCache(ctx, updated)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	zapLog := s.logger(ctx)

	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		zapLog.Error("failed to delete client", zap.Error(err), zap.String("client_id", id))
		return errutil.Internal("failed to delete client")
	}

	s.invalidateCheckCache(ctx, record)

	zapLog.Info("client deleted", zap.String("client_id", id))
	return nil
}

type ToggleAction string

var (
	ActionEnable  ToggleAction = "enable"
	ActionDisable ToggleAction = "disable"
	ActionSuspend ToggleAction = "suspend"
)

// ToggleStatus applies an administrator-driven lifecycle transition.
// Enable reactivates a cancelled subscription but deliberately leaves an
// expired or suspended one untouched; suspend pulls the subscription down
// with the account.
func (s *Service) ToggleStatus(ctx context.Context, id string, action ToggleAction, reason string) (*Tenant, error) {
	zapLog := s.logger(ctx)

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}

	switch action {
	case ActionEnable:
		values["status"] = StatusActive
		if record.SubscriptionStatus == SubscriptionCancelled {
			values["subscription_status"] = SubscriptionActive
		}
	case ActionDisable:
		values["status"] = StatusSuspended
	case ActionSuspend:
		values["status"] = StatusSuspended
		values["subscription_status"] = SubscriptionSuspended
	default:
		return nil, errutil.BadRequest(fmt.Sprintf("unknown action %q", action))
	}

	if reason != "" {
		values["notes"] = appendNote(record.Notes, fmt.Sprintf("%s: %s", action, reason))
	}

	values["updated_at"] = time.Now()

	if err := s.repo.Update(ctx, id, values); err != nil {
		zapLog.Error("failed to toggle client status", zap.Error(err), zap.String("client_id", id))
		return nil, errutil.Internal("failed to toggle client status")
	}

	s.invalidateCheckCache(ctx, record)

	zapLog.Info("client status toggled",
		zap.String("client_id", id),
		zap.String("action", string(action)),
	)

	return s.Get(ctx, id)
}

// RegenerateLicenseKey replaces the license key immediately; the previous
// key is recorded in the notes trail. License keys are domain-bound
// identifiers, not secrets, so the old value may appear in notes.
func (s *Service) RegenerateLicenseKey(ctx context.Context, id string) (*Tenant, *SetupInstructions, error) {
	zapLog := s.logger(ctx)

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	licenseKey, err := s.generateUniqueLicenseKey(ctx)
	if err != nil {
		return nil, nil, err
	}

	values := map[string]any{
		"license_key": licenseKey,
		"notes":       appendNote(record.Notes, fmt.Sprintf("license key regenerated (previous: %s)", record.LicenseKey)),
		"updated_at":  time.Now(),
	}

	if err := s.repo.Update(ctx, id, values); err != nil {
		zapLog.Error("failed to regenerate license key", zap.Error(err), zap.String("client_id", id))
		return nil, nil, errutil.Internal("failed to regenerate license key")
	}

	s.invalidateCheckCache(ctx, record)

	zapLog.Info("license key regenerated", zap.String("client_id", id))

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	setup := &SetupInstructions{
		LicenseKey: licenseKey,
		Message:    "Update the website configuration with the new license key. The previous key stopped working immediately.",
	}

	return updated, setup, nil
}

// RegenerateAPIKey replaces the HMAC shared secret with no overlap period
// and re-activates the API. The old key is never written to notes.
func (s *Service) RegenerateAPIKey(ctx context.Context, id string) (*Tenant, *SetupInstructions, error) {
	zapLog := s.logger(ctx)

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	apiKey, err := security.GenerateAPIKey()
	if err != nil {
		zapLog.Error("failed to generate api key", zap.Error(err))
		return nil, nil, errutil.Internal("failed to generate api key")
	}

	values := map[string]any{
		"api_key":    apiKey,
		"api_status": APIActive,
		"notes":      appendNote(record.Notes, "api key regenerated"),
		"updated_at": time.Now(),
	}

	if err := s.repo.Update(ctx, id, values); err != nil {
		zapLog.Error("failed to regenerate api key", zap.Error(err), zap.String("client_id", id))
		return nil, nil, errutil.Internal("failed to regenerate api key")
	}

	zapLog.Info("api key regenerated", zap.String("client_id", id))

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	setup := &SetupInstructions{
		APIKey:  apiKey,
		Message: "Update the website's federation settings with the new API key. It will not be shown again.",
	}

	return updated, setup, nil
}

// generateUniqueLicenseKey retries on collision up to maxKeyAttempts. With
// 96 bits of randomness a collision is a near-impossibility; the bound
// exists so a broken random source fails loudly instead of spinning.
func (s *Service) generateUniqueLicenseKey(ctx context.Context) (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key, err := security.GenerateLicenseKey()
		if err != nil {
			s.logger(ctx).Error("failed to generate license key", zap.Error(err))
			return "", errutil.Internal("failed to generate license key")
		}

		existing, err := s.repo.FindOne(ctx, &Tenant{LicenseKey: key})
		if err != nil {
			s.logger(ctx).Error("failed uniqueness check for license key", zap.Error(err))
			return "", errutil.Internal("failed to generate license key")
		}

		if existing == nil {
			return key, nil
		}
	}

	s.logger(ctx).Error("license key generation exhausted", zap.Int("attempts", maxKeyAttempts))
	return "", errutil.KeyGenerationExhausted("unable to generate a unique license key, please retry")
}

// invalidateCheckCache drops the cached lightweight-check result keyed on
// the record's license key and canonical domain.
func (s *Service) invalidateCheckCache(ctx context.Context, record *Tenant) {
	if s.rdb == nil || record == nil {
		return
	}
	key := rediskey.BuildLicenseCheckKey(record.LicenseKey + ":" + record.WebsiteDomain)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger(ctx).Warn("failed to invalidate license check cache", zap.Error(err))
	}
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	return zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}

func appendNote(notes, line string) string {
	stamped := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), line)
	if notes == "" {
		return stamped
	}
	return notes + "\n" + stamped
}
