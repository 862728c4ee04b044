package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict signals a version mismatch or a duplicate order id.
	ErrConflict = errors.New("order was modified concurrently")
)

// ListFilter narrows order listings. Zero values match everything.
type ListFilter struct {
	UserID         string
	DeliveryStatus domain.DeliveryStatus
}

// Repository persists orders with optimistic concurrency.
type Repository interface {
	// Create inserts a new order at version 1; an existing id yields ErrConflict.
	Create(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error)
	// Update writes the order when the stored version equals order.Version and bumps it.
	Update(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error)
	GetByID(ctx context.Context, id string) (*projection.Projection[*domain.Order], error)
	// List returns matching orders, newest first.
	List(ctx context.Context, filter ListFilter) ([]*projection.Projection[*domain.Order], error)
	// HasDeliveredPurchase reports whether the user has a delivered order containing the product.
	HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error)
}
