package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
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

// New wraps the core orders service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
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

func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", input.Actor.UserID),
		attribute.Int("order.lines", len(input.Items)),
		attribute.String("order.payment_method", input.PaymentMethod),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("user.id", input.Actor.UserID), slog.Int("lines", len(input.Items)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("user.id", input.Actor.UserID))
	}
	order := result.Entity
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.recordPlaced(ctx, string(order.PaymentMethod))
	s.logInfo(ctx, "order placed",
		slog.String("order.id", order.ID),
		slog.String("payment.status", string(order.PaymentStatus)),
		slog.String("total", order.Totals.Total.String()))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.String("order.id", ref.OrderID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, ref)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", ref.OrderID))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListOrders", trace.WithAttributes(attribute.String("order.delivery_status", input.DeliveryStatus)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) ListUserOrders(ctx context.Context, actor ordertypes.Actor) ([]*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListUserOrders", trace.WithAttributes(attribute.String("user.id", actor.UserID)))
	defer span.End()

	result, err := s.inner.ListUserOrders(ctx, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list user orders", slog.String("user.id", actor.UserID))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.CancelOrder", trace.WithAttributes(attribute.String("order.id", ref.OrderID)))
	defer span.End()

	result, err := s.inner.CancelOrder(ctx, ref)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.id", ref.OrderID))
	}
	s.metrics.recordCancelled(ctx)
	s.logInfo(ctx, "order cancelled",
		slog.String("order.id", ref.OrderID),
		slog.String("payment.status", string(result.Entity.PaymentStatus)),
		slog.Bool("by_admin", ref.Actor.IsAdmin))
	return result, nil
}

func (s *Service) UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.UpdateOrder", trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer span.End()

	result, err := s.inner.UpdateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order", slog.String("order.id", input.OrderID))
	}
	s.logInfo(ctx, "order updated",
		slog.String("order.id", input.OrderID),
		slog.String("delivery.status", string(result.Entity.DeliveryStatus)),
		slog.String("payment.status", string(result.Entity.PaymentStatus)))
	return result, nil
}

func (s *Service) ReorderOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ReorderOrder", trace.WithAttributes(attribute.String("order.id", ref.OrderID)))
	defer span.End()

	result, err := s.inner.ReorderOrder(ctx, ref)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reorder", slog.String("order.id", ref.OrderID))
	}
	s.metrics.recordReactivated(ctx)
	s.logInfo(ctx, "order reactivated", slog.String("order.id", ref.OrderID))
	return result, nil
}

func (s *Service) PayOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.PayOrder", trace.WithAttributes(attribute.String("order.id", ref.OrderID)))
	defer span.End()

	result, err := s.inner.PayOrder(ctx, ref)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark order paid", slog.String("order.id", ref.OrderID))
	}
	s.logInfo(ctx, "order paid", slog.String("order.id", ref.OrderID))
	return result, nil
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
	placed      metric.Int64Counter
	cancelled   metric.Int64Counter
	reactivated metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	cancelled, _ := m.Int64Counter("orders.service.orders_cancelled", metric.WithDescription("Number of orders cancelled"))
	reactivated, _ := m.Int64Counter("orders.service.orders_reactivated", metric.WithDescription("Number of cancelled orders reordered"))
	return serviceMetrics{placed: placed, cancelled: cancelled, reactivated: reactivated}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, method string) {
	if m.placed != nil {
		m.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", method)))
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context) {
	if m.cancelled != nil {
		m.cancelled.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordReactivated(ctx context.Context) {
	if m.reactivated != nil {
		m.reactivated.Add(ctx, 1)
	}
}

var _ orderports.Service = (*Service)(nil)
