package license

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db/option"
	"commercehub-adminpanel/pkg/db/pagination"
	"commercehub-adminpanel/pkg/domainutil"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/rediskey"
	"commercehub-adminpanel/pkg/repository"
	"commercehub-adminpanel/services/tenant"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type Service struct {
	db         *gorm.DB
	node       *snowflake.Node
	rdb        *redis.Client
	config     *config.Config
	tenantRepo repository.Repository[tenant.Tenant]
	logRepo    repository.Repository[VerificationLog]
	group      singleflight.Group
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
		db:         p.DB,
		node:       p.Node,
		rdb:        p.Redis,
		config:     p.Config,
		tenantRepo: repository.ProvideStore[tenant.Tenant](p.DB),
		logRepo:    repository.ProvideStore[VerificationLog](p.DB),
	}
}

// Meta carries request attribution recorded in the verification log.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Verify runs the full pipeline: lookup, account gate, domain binding,
// subscription gate, expiry check, success touch. Every pipeline outcome
// writes exactly one verification log row with the elapsed time. A store
// fault returns an internal error and writes no log row.
func (s *Service) Verify(ctx context.Context, licenseKey, domain string, meta Meta) (Outcome, error) {
	zapLog := s.logger(ctx)
	start := time.Now()

	record, err := s.tenantRepo.FindOne(ctx, &tenant.Tenant{LicenseKey: licenseKey})
	if err != nil {
		zapLog.Error("failed license lookup", zap.Error(err))
		return Outcome{}, errutil.Internal("license verification failed")
	}

	if record == nil {
		outcome := Invalid()
		s.writeLog(ctx, unknownClientID, licenseKey, domain, meta, outcome, start)
		return outcome, nil
	}

	outcome := Evaluate(record, domain, time.Now())

	if outcome.MarkExpired {
		s.markExpired(ctx, record)
	}

	if outcome.Valid {
		now := time.Now()
		if err := s.tenantRepo.Update(ctx, record.ID, map[string]any{
			"last_access_date":       now,
			"last_verification_date": now,
		}); err != nil {
			zapLog.Warn("failed to touch verification dates",
				zap.Error(err),
				zap.String("client_id", record.ID),
			)
		}
	}

	s.writeLog(ctx, record.ID, licenseKey, domain, meta, outcome, start)

	return outcome, nil
}

// QuickResult is the lightweight check response, small enough to cache.
type QuickResult struct {
	Valid     bool               `json:"valid"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
	Message   string             `json:"message,omitempty"`
	Code      errutil.CoreStatus `json:"code,omitempty"`
}

// QuickCheck is the read-only polling variant: no log row, no expiry flip,
// no touch of the access dates. Results are cached briefly in redis and
// concurrent identical checks are collapsed through singleflight.
func (s *Service) QuickCheck(ctx context.Context, licenseKey, domain string) (QuickResult, error) {
	cacheKey := rediskey.BuildLicenseCheckKey(licenseKey + ":" + domainutil.ExtractDomain(domain))

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached QuickResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err, _ := s.group.Do(cacheKey, func() (any, error) {
		record, err := s.tenantRepo.FindOne(ctx, &tenant.Tenant{LicenseKey: licenseKey})
		if err != nil {
			s.logger(ctx).Error("failed license lookup", zap.Error(err))
			return QuickResult{}, errutil.Internal("license check failed")
		}

		var res QuickResult
		if record == nil {
			outcome := Invalid()
			res = QuickResult{Message: outcome.Message, Code: errutil.StatusUnauthorized}
		} else {
			outcome := Evaluate(record, domain, time.Now())
			if outcome.Valid {
				res = QuickResult{Valid: true, ExpiresAt: record.SubscriptionEndDate}
			} else {
				var base errutil.BaseError
				code := errutil.StatusForbidden
				if errors.As(outcome.Err, &base) {
					code = base.Code
				}
				res = QuickResult{Message: outcome.Message, Code: code}
			}
		}

		if s.rdb != nil {
			if raw, err := json.Marshal(res); err == nil {
				s.rdb.Set(ctx, cacheKey, raw, s.config.Verification.CacheTTL)
			}
		}

		return res, nil
	})
	if err != nil {
		return QuickResult{}, err
	}

	return result.(QuickResult), nil
}

// ListLogs returns a client's verification history, newest first.
func (s *Service) ListLogs(ctx context.Context, clientID string, p pagination.Pagination) ([]*VerificationLog, *pagination.PageInfo, error) {
	zapLog := s.logger(ctx)

	if clientID == "" {
		return nil, nil, errutil.BadRequest("client id is required")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	logs, err := s.logRepo.Find(ctx, &VerificationLog{ClientID: clientID}, option.ApplyPagination(pagination.Pagination{
		Cursor: p.Cursor,
		Limit:  limit + 1,
	}))
	if err != nil {
		zapLog.Error("failed to list verification logs", zap.Error(err), zap.String("client_id", clientID))
		return nil, nil, errutil.Internal("failed to list verification logs")
	}

	pageInfo := pagination.BuildCursorPageInfo(logs, limit, func(l *VerificationLog) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        l.ID,
		})
		return cursor
	})

	if len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, pageInfo, nil
}

// markExpired flips the subscription persistently. The guard on the current
// status makes concurrent flips near the expiry boundary idempotent.
func (s *Service) markExpired(ctx context.Context, record *tenant.Tenant) {
	err := s.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("id = ? AND subscription_status = ?", record.ID, tenant.SubscriptionActive).
		Updates(map[string]any{
			"subscription_status": tenant.SubscriptionExpired,
			"updated_at":          time.Now(),
		}).Error
	if err != nil {
		s.logger(ctx).Error("failed to mark subscription expired",
			zap.Error(err),
			zap.String("client_id", record.ID),
		)
		return
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, rediskey.BuildLicenseCheckKey(record.LicenseKey+":"+record.WebsiteDomain))
	}

	s.logger(ctx).Info("subscription marked expired", zap.String("client_id", record.ID))
}

func (s *Service) writeLog(ctx context.Context, clientID, licenseKey, domain string, meta Meta, outcome Outcome, start time.Time) {
	entry := &VerificationLog{
		ID:             s.node.Generate().String(),
		ClientID:       clientID,
		LicenseKey:     licenseKey,
		Domain:         domain,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Status:         outcome.Status,
		ErrorMessage:   outcome.Message,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		CreatedAt:      time.Now(),
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger(ctx).Warn("failed to write verification log",
			zap.Error(err),
			zap.String("client_id", clientID),
		)
	}
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	return zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}
