package ports

import (
	"context"
	"sort"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

// StockLine is a quantity of one product to reserve or release.
type StockLine struct {
	ProductID string
	Quantity  int
}

// Ledger moves units between a product's stock and sold counters.
//
// Reserve fails with domain.ErrOutOfStock when stock < qty and leaves counters untouched.
// ReserveAll is all-or-nothing across lines. ReleaseAll skips products that have
// since been deleted, since there is no stock left to return them to.
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
	ReserveAll(ctx context.Context, lines []StockLine) error
	ReleaseAll(ctx context.Context, lines []StockLine) error
}

// NormalizeLines validates lines, folds repeated products into one line and orders
// the result by product id so concurrent reservations lock rows in the same order.
func NormalizeLines(lines []StockLine) ([]StockLine, error) {
	totals := map[string]int{}
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, domain.ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		totals[line.ProductID] += line.Quantity
	}
	merged := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, StockLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}
