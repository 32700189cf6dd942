package federation

import (
	"context"
	"time"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/repository"
	"commercehub-adminpanel/services/tenant"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	client *Client
	config *config.Config
	repo   repository.Repository[tenant.Tenant]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		client: NewClient(p.Config),
		config: p.Config,
		repo:   repository.ProvideStore[tenant.Tenant](p.DB),
	}
}

// FetchUsers pulls one page of users from the client's own API and bumps
// lastSeenAt when the call succeeds.
func (s *Service) FetchUsers(ctx context.Context, clientID string, q FetchQuery) (*UsersPage, error) {
	zapLog := s.logger(ctx)

	record, err := s.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	page, err := s.client.FetchUsers(ctx, record, q)
	if err != nil {
		zapLog.Warn("federated user fetch failed",
			zap.Error(err),
			zap.String("client_id", clientID),
		)
		return nil, err
	}

	s.touchLastSeen(ctx, clientID)

	return page, nil
}

// TestConnection reports whether a minimal signed fetch succeeds. The
// underlying error is logged and swallowed.
func (s *Service) TestConnection(ctx context.Context, clientID string) (bool, error) {
	zapLog := s.logger(ctx)

	record, err := s.getClient(ctx, clientID)
	if err != nil {
		return false, err
	}

	if _, err := s.client.FetchUsers(ctx, record, FetchQuery{Limit: 1}); err != nil {
		zapLog.Warn("connection test failed",
			zap.Error(err),
			zap.String("client_id", clientID),
		)
		return false, nil
	}

	s.touchLastSeen(ctx, clientID)

	return true, nil
}

func (s *Service) getClient(ctx context.Context, clientID string) (*tenant.Tenant, error) {
	if clientID == "" {
		return nil, errutil.BadRequest("client id is required")
	}

	record, err := s.repo.FindOne(ctx, &tenant.Tenant{ID: clientID})
	if err != nil {
		s.logger(ctx).Error("failed query client by id", zap.Error(err))
		return nil, errutil.Internal("failed to get client")
	}
	if record == nil {
		return nil, errutil.NotFound("client not found")
	}

	return record, nil
}

func (s *Service) touchLastSeen(ctx context.Context, clientID string) {
	now := time.Now()
	if err := s.repo.Update(ctx, clientID, map[string]any{"last_seen_at": now}); err != nil {
		s.logger(ctx).Warn("failed to bump last seen",
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
