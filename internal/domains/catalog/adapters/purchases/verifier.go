package purchases

import (
	"context"
	"errors"

	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

// DeliveredOrders is the slice of the orders repository the verifier needs.
type DeliveredOrders interface {
	HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error)
}

var _ catalogports.PurchaseVerifier = (*Verifier)(nil)

// Verifier answers proof-of-purchase questions from the order history.
type Verifier struct {
	orders DeliveredOrders
}

func NewVerifier(orders DeliveredOrders) *Verifier {
	return &Verifier{orders: orders}
}

// HasPurchased is true when the user holds a delivered order containing the product.
func (v *Verifier) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	if v == nil || v.orders == nil {
		return false, errors.New("purchase verifier not configured")
	}
	if userID == "" || productID == "" {
		return false, nil
	}
	return v.orders.HasDeliveredPurchase(ctx, userID, productID)
}
