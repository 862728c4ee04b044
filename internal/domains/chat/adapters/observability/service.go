package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	chattypes "github.com/Apurer/go-gin-storefront/internal/domains/chat/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/observability/service"

// Service decorates the chat service with tracing, logging, and metrics.
type Service struct {
	inner   chatports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core chat service.
func New(inner chatports.Service, opts ...Option) chatports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
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
	return s
}

func (s *Service) SendMessage(ctx context.Context, input chattypes.SendMessageInput) (*chattypes.SendResult, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.SendMessage", trace.WithAttributes(
		attribute.String("user.id", input.Actor.UserID),
		attribute.Bool("chat.agent", input.Actor.IsAdmin),
	))
	defer span.End()

	result, err := s.inner.SendMessage(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to send chat message", slog.String("user.id", input.Actor.UserID))
	}
	direction := "to_agent"
	if !result.Message.FromCustomer() {
		direction = "to_customer"
	}
	span.SetAttributes(
		attribute.String("chat.message_id", result.Message.ID),
		attribute.String("chat.customer_id", result.Message.CustomerID()),
		attribute.Int("chat.pushed", result.Pushed),
	)
	s.metrics.recordSent(ctx, direction, result.Pushed)
	s.logInfo(ctx, "chat message stored",
		slog.String("chat.message_id", result.Message.ID),
		slog.String("chat.customer_id", result.Message.CustomerID()),
		slog.String("direction", direction),
		slog.Int("pushed", result.Pushed))
	return result, nil
}

func (s *Service) History(ctx context.Context, input chattypes.HistoryInput) ([]*domain.Message, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.History", trace.WithAttributes(attribute.String("chat.customer_id", input.CustomerID)))
	defer span.End()

	result, err := s.inner.History(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load chat history", slog.String("chat.customer_id", input.CustomerID))
	}
	span.SetAttributes(attribute.Int("chat.messages", len(result)))
	return result, nil
}

func (s *Service) MarkRead(ctx context.Context, input chattypes.MarkReadInput) (*chattypes.ReadResult, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.MarkRead", trace.WithAttributes(attribute.String("chat.customer_id", input.CustomerID)))
	defer span.End()

	result, err := s.inner.MarkRead(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark chat read", slog.String("chat.customer_id", input.CustomerID))
	}
	s.logInfo(ctx, "chat thread read",
		slog.String("chat.customer_id", result.CustomerID),
		slog.Int64("marked", result.Marked),
		slog.Bool("by_agent", input.Actor.IsAdmin))
	return result, nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor chattypes.Actor) ([]*domain.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.MarkAllRead", trace.WithAttributes(attribute.String("user.id", actor.UserID)))
	defer span.End()

	result, err := s.inner.MarkAllRead(ctx, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark all chats read")
	}
	s.logInfo(ctx, "all chat threads read", slog.Int("conversations", len(result)))
	return result, nil
}

func (s *Service) Conversations(ctx context.Context, actor chattypes.Actor) ([]*domain.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.Conversations")
	defer span.End()

	result, err := s.inner.Conversations(ctx, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list conversations")
	}
	span.SetAttributes(attribute.Int("chat.conversations", len(result)))
	return result, nil
}

func (s *Service) UnreadCount(ctx context.Context, input chattypes.UnreadInput) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.UnreadCount", trace.WithAttributes(attribute.String("user.id", input.UserID)))
	defer span.End()

	count, err := s.inner.UnreadCount(ctx, input)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to count unread messages", slog.String("user.id", input.UserID))
	}
	return count, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	sent   metric.Int64Counter
	pushes metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	sent, _ := m.Int64Counter("chat.service.messages_sent", metric.WithDescription("Number of chat messages stored"))
	pushes, _ := m.Int64Counter("chat.service.realtime_pushes", metric.WithDescription("Number of live connections a chat message reached"))
	return serviceMetrics{sent: sent, pushes: pushes}
}

func (m serviceMetrics) recordSent(ctx context.Context, direction string, pushed int) {
	if m.sent != nil {
		m.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("chat.direction", direction)))
	}
	if m.pushes != nil && pushed > 0 {
		m.pushes.Add(ctx, int64(pushed))
	}
}

var _ chatports.Service = (*Service)(nil)
