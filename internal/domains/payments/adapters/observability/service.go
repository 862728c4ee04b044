package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	paymenttypes "github.com/Apurer/go-gin-storefront/internal/domains/payments/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	paymentports "github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/observability/service"

// Service decorates the payments service with tracing, logging, and metrics.
type Service struct {
	inner   paymentports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	intents metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m != nil {
			s.intents, _ = m.Int64Counter("payments.service.intents_created", metric.WithDescription("Number of payment intents created"))
		}
	}
}

func New(inner paymentports.Service, opts ...Option) paymentports.Service {
	s := &Service{inner: inner, tracer: nooptrace.NewTracerProvider().Tracer(tracerName)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateIntent(ctx context.Context, input paymenttypes.CreateIntentInput) (*domain.Intent, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentsService.CreateIntent", trace.WithAttributes(
		attribute.String("user.id", input.UserID),
		attribute.String("payment.total_vnd", input.TotalPrice.String()),
	))
	defer span.End()

	intent, err := s.inner.CreateIntent(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.logger != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to create payment intent",
				slog.String("user.id", input.UserID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.intent_id", intent.ID), attribute.Int64("payment.amount", intent.Amount))
	if s.intents != nil {
		s.intents.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.currency", intent.Currency)))
	}
	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "payment intent created",
			slog.String("payment.intent_id", intent.ID),
			slog.Int64("amount", intent.Amount))
	}
	return intent, nil
}

var _ paymentports.Service = (*Service)(nil)
