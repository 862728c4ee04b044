package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository persists products together with their embedded comments.
//
// Product names are unique ignoring case; Save and Update fail with
// domain.ErrDuplicateName when another product already uses the name.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	// Update applies fn to the stored product under a lock and writes back its catalog fields.
	Update(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error)
	// Delete removes the products and their reviews, returning how many existed.
	Delete(ctx context.Context, ids ...string) (int, error)
	// ListTypes returns the distinct non-empty product types in ascending order.
	ListTypes(ctx context.Context) ([]string, error)
	// MutateComments loads the product, applies fn and persists the comment set and rating
	// summary atomically with respect to other mutations of the same product.
	MutateComments(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error)
}

// PurchaseVerifier answers whether a user received a delivered order containing a product.
type PurchaseVerifier interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}
