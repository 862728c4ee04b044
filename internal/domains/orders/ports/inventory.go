package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

var (
	ErrOutOfStock     = errors.New("insufficient stock")
	ErrUnknownProduct = errors.New("order references an unknown product")
)

// Inventory reserves and releases stock for order lines.
// ReserveAll is all-or-nothing; on ErrOutOfStock no counter has moved.
type Inventory interface {
	ReserveAll(ctx context.Context, lines []domain.StockLine) error
	ReleaseAll(ctx context.Context, lines []domain.StockLine) error
}
