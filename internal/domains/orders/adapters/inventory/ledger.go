package inventory

import (
	"context"
	"errors"
	"fmt"

	catalogdomain "github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.Inventory = (*Ledger)(nil)

// Ledger adapts the catalog inventory ledger to the orders inventory port.
type Ledger struct {
	ledger catalogports.Ledger
}

// NewLedger wraps a catalog ledger.
func NewLedger(ledger catalogports.Ledger) *Ledger {
	return &Ledger{ledger: ledger}
}

func (l *Ledger) ReserveAll(ctx context.Context, lines []domain.StockLine) error {
	if l == nil || l.ledger == nil {
		return errors.New("inventory ledger not configured")
	}
	return translate(l.ledger.ReserveAll(ctx, toCatalogLines(lines)))
}

func (l *Ledger) ReleaseAll(ctx context.Context, lines []domain.StockLine) error {
	if l == nil || l.ledger == nil {
		return errors.New("inventory ledger not configured")
	}
	return translate(l.ledger.ReleaseAll(ctx, toCatalogLines(lines)))
}

func toCatalogLines(lines []domain.StockLine) []catalogports.StockLine {
	out := make([]catalogports.StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, catalogports.StockLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalogdomain.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ports.ErrOutOfStock, err)
	case errors.Is(err, catalogports.ErrNotFound),
		errors.Is(err, catalogdomain.ErrInvalidProductID),
		errors.Is(err, catalogdomain.ErrInvalidQuantity):
		return fmt.Errorf("%w: %w", ports.ErrUnknownProduct, err)
	}
	return err
}
