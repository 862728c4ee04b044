package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalogtypes "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	catalogdomain "github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog service with tracing, logging, and metrics.
type Service struct {
	inner   catalogports.Service
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

// New wraps the core catalog service.
func New(inner catalogports.Service, opts ...Option) catalogports.Service {
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

func (s *Service) CreateProduct(ctx context.Context, input catalogtypes.CreateProductInput) (*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateProduct", trace.WithAttributes(attribute.String("product.name", input.Name)))
	defer span.End()

	result, err := s.inner.CreateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create product", slog.String("product.name", input.Name))
	}
	s.metrics.recordProductChange(ctx, "create", 1)
	s.logInfo(ctx, "product created", slog.String("product.id", result.ID), slog.Int("stock", result.Stock))
	return result, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProduct", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.String("product.id", id))
	}
	return result, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.count", len(result)))
	return result, nil
}

func (s *Service) UpdateProduct(ctx context.Context, input catalogtypes.UpdateProductInput) (*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpdateProduct", trace.WithAttributes(attribute.String("product.id", input.ProductID)))
	defer span.End()

	result, err := s.inner.UpdateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product", slog.String("product.id", input.ProductID))
	}
	s.metrics.recordProductChange(ctx, "update", 1)
	s.logInfo(ctx, "product updated", slog.String("product.id", result.ID), slog.Int("stock", result.Stock))
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteProduct", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.String("product.id", id))
	}
	s.metrics.recordProductChange(ctx, "delete", 1)
	s.logInfo(ctx, "product deleted", slog.String("product.id", id))
	return nil
}

func (s *Service) DeleteProducts(ctx context.Context, ids []string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteProducts", trace.WithAttributes(attribute.Int("product.requested", len(ids))))
	defer span.End()

	removed, err := s.inner.DeleteProducts(ctx, ids)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to delete products", slog.Int("product.requested", len(ids)))
	}
	span.SetAttributes(attribute.Int("product.removed", removed))
	s.metrics.recordProductChange(ctx, "delete", removed)
	s.logInfo(ctx, "products deleted", slog.Int("product.requested", len(ids)), slog.Int("product.removed", removed))
	return removed, nil
}

func (s *Service) ListProductTypes(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListProductTypes")
	defer span.End()

	result, err := s.inner.ListProductTypes(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list product types")
	}
	return result, nil
}

func (s *Service) AddComment(ctx context.Context, input catalogtypes.AddCommentInput) (*catalogtypes.CommentResult, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.AddComment",
		trace.WithAttributes(attribute.String("product.id", input.ProductID), attribute.Int("comment.rating", input.Rating)))
	defer span.End()

	s.logInfo(ctx, "adding comment", slog.String("product.id", input.ProductID), slog.String("user.id", input.Actor.UserID))
	result, err := s.inner.AddComment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add comment",
			slog.String("product.id", input.ProductID), slog.String("user.id", input.Actor.UserID))
	}
	s.metrics.recordWritten(ctx, "add")
	s.logInfo(ctx, "comment added",
		slog.String("product.id", input.ProductID),
		slog.String("comment.id", result.Comment.ID),
		slog.Float64("rating.average", result.Summary.AverageRating))
	return result, nil
}

func (s *Service) ListComments(ctx context.Context, input catalogtypes.ListCommentsInput) (*catalogtypes.CommentPage, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListComments",
		trace.WithAttributes(attribute.String("product.id", input.ProductID), attribute.String("sort", string(input.Sort))))
	defer span.End()

	result, err := s.inner.ListComments(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list comments", slog.String("product.id", input.ProductID))
	}
	span.SetAttributes(attribute.Int("comment.total", result.Total))
	return result, nil
}

func (s *Service) UpdateComment(ctx context.Context, input catalogtypes.UpdateCommentInput) (*catalogtypes.CommentResult, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpdateComment",
		trace.WithAttributes(attribute.String("product.id", input.ProductID), attribute.String("comment.id", input.CommentID)))
	defer span.End()

	result, err := s.inner.UpdateComment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update comment", slog.String("comment.id", input.CommentID))
	}
	s.metrics.recordWritten(ctx, "update")
	s.logInfo(ctx, "comment updated", slog.String("comment.id", input.CommentID))
	return result, nil
}

func (s *Service) DeleteComment(ctx context.Context, input catalogtypes.DeleteCommentInput) (*catalogdomain.RatingSummary, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteComment",
		trace.WithAttributes(attribute.String("product.id", input.ProductID), attribute.String("comment.id", input.CommentID)))
	defer span.End()

	result, err := s.inner.DeleteComment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to delete comment", slog.String("comment.id", input.CommentID))
	}
	s.metrics.recordWritten(ctx, "delete")
	s.logInfo(ctx, "comment deleted", slog.String("comment.id", input.CommentID), slog.Bool("by_admin", input.Actor.IsAdmin))
	return result, nil
}

func (s *Service) ToggleLike(ctx context.Context, input catalogtypes.ToggleLikeInput) (*catalogtypes.LikeResult, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ToggleLike", trace.WithAttributes(attribute.String("comment.id", input.CommentID)))
	defer span.End()

	result, err := s.inner.ToggleLike(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to toggle like", slog.String("comment.id", input.CommentID))
	}
	span.SetAttributes(attribute.Bool("comment.liked", result.Liked))
	return result, nil
}

func (s *Service) RatingStats(ctx context.Context, productID string) (*catalogdomain.RatingSummary, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.RatingStats", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	result, err := s.inner.RatingStats(ctx, productID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load rating stats", slog.String("product.id", productID))
	}
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
	commentsWritten metric.Int64Counter
	productsChanged metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	written, _ := m.Int64Counter("catalog.service.comments_written", metric.WithDescription("Number of review mutations committed"))
	changed, _ := m.Int64Counter("catalog.service.products_changed", metric.WithDescription("Number of products created, updated or deleted"))
	return serviceMetrics{commentsWritten: written, productsChanged: changed}
}

func (m serviceMetrics) recordProductChange(ctx context.Context, op string, n int) {
	if m.productsChanged != nil && n > 0 {
		m.productsChanged.Add(ctx, int64(n), metric.WithAttributes(attribute.String("product.op", op)))
	}
}

func (m serviceMetrics) recordWritten(ctx context.Context, op string) {
	if m.commentsWritten != nil {
		m.commentsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("comment.op", op)))
	}
}

var _ catalogports.Service = (*Service)(nil)
