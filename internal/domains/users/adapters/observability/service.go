package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	usertypes "github.com/Apurer/go-gin-storefront/internal/domains/users/application/types"
	userdomain "github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/observability/service"

// Service decorates the user service with tracing, logging, and metrics.
type Service struct {
	inner   userports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Register(ctx context.Context, input usertypes.RegisterInput) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()
	result, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register account")
	}
	span.SetAttributes(attribute.String("user.id", result.ID))
	s.metrics.recordRegistered(ctx)
	s.logInfo(ctx, "account registered", slog.String("user.id", result.ID))
	return result, nil
}

// Login never logs the email, so failed attempts do not leak which addresses exist.
func (s *Service) Login(ctx context.Context, input usertypes.LoginInput) (*usertypes.Session, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login")
	defer span.End()
	result, err := s.inner.Login(ctx, input)
	if err != nil {
		s.metrics.recordLogin(ctx, false)
		return nil, s.handleError(ctx, span, err, "sign-in failed")
	}
	span.SetAttributes(attribute.String("user.id", result.User.ID))
	s.metrics.recordLogin(ctx, true)
	s.logInfo(ctx, "signed in", slog.String("user.id", result.User.ID))
	return result, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*usertypes.Session, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.RefreshToken")
	defer span.End()
	result, err := s.inner.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to refresh access token")
	}
	span.SetAttributes(attribute.String("user.id", result.User.ID))
	return result, nil
}

func (s *Service) ChangePassword(ctx context.Context, input usertypes.ChangePasswordInput) error {
	ctx, span := s.tracer.Start(ctx, "UserService.ChangePassword", trace.WithAttributes(attribute.String("user.id", input.UserID)))
	defer span.End()
	if err := s.inner.ChangePassword(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to change password", slog.String("user.id", input.UserID))
	}
	s.logInfo(ctx, "password changed", slog.String("user.id", input.UserID))
	return nil
}

func (s *Service) Sync(ctx context.Context, input usertypes.SyncInput) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Sync", trace.WithAttributes(attribute.String("user.id", input.UserID)))
	defer span.End()
	result, err := s.inner.Sync(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to sync user", slog.String("user.id", input.UserID))
	}
	s.metrics.recordSynced(ctx)
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to fetch user", slog.String("user.id", id))
	}
	return result, nil
}

func (s *Service) UpdateProfile(ctx context.Context, input usertypes.UpdateProfileInput) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UpdateProfile", trace.WithAttributes(attribute.String("user.id", input.UserID)))
	defer span.End()
	s.logInfo(ctx, "updating profile", slog.String("user.id", input.UserID))
	result, err := s.inner.UpdateProfile(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update profile", slog.String("user.id", input.UserID))
	}
	s.metrics.recordUpdated(ctx)
	s.logInfo(ctx, "profile updated", slog.String("user.id", result.ID))
	return result, nil
}

func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.DisplayName", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	name, err := s.inner.DisplayName(ctx, id)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to resolve display name", slog.String("user.id", id))
	}
	return name, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type serviceMetrics struct {
	usersSynced     metric.Int64Counter
	usersUpdated    metric.Int64Counter
	usersRegistered metric.Int64Counter
	logins          metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	synced, _ := m.Int64Counter("users.service.synced", metric.WithDescription("Number of profiles synced from access tokens"))
	updated, _ := m.Int64Counter("users.service.updated", metric.WithDescription("Number of profiles updated"))
	registered, _ := m.Int64Counter("users.service.registered", metric.WithDescription("Number of accounts opened with a password"))
	logins, _ := m.Int64Counter("users.service.logins", metric.WithDescription("Number of sign-in attempts by outcome"))
	return serviceMetrics{usersSynced: synced, usersUpdated: updated, usersRegistered: registered, logins: logins}
}

func (m serviceMetrics) recordRegistered(ctx context.Context) {
	if m.usersRegistered != nil {
		m.usersRegistered.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordLogin(ctx context.Context, ok bool) {
	if m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("login.succeeded", ok)))
	}
}

func (m serviceMetrics) recordSynced(ctx context.Context) {
	if m.usersSynced != nil {
		m.usersSynced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordUpdated(ctx context.Context) {
	if m.usersUpdated != nil {
		m.usersUpdated.Add(ctx, 1)
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Service = (*Service)(nil)
