package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

// Service exposes catalog and review use cases to adapters.
type Service interface {
	CreateProduct(ctx context.Context, input types.CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	DeleteProducts(ctx context.Context, ids []string) (int, error)
	ListProductTypes(ctx context.Context) ([]string, error)

	AddComment(ctx context.Context, input types.AddCommentInput) (*types.CommentResult, error)
	ListComments(ctx context.Context, input types.ListCommentsInput) (*types.CommentPage, error)
	UpdateComment(ctx context.Context, input types.UpdateCommentInput) (*types.CommentResult, error)
	DeleteComment(ctx context.Context, input types.DeleteCommentInput) (*domain.RatingSummary, error)
	ToggleLike(ctx context.Context, input types.ToggleLikeInput) (*types.LikeResult, error)
	RatingStats(ctx context.Context, productID string) (*domain.RatingSummary, error)
}
