package ports

import (
	"context"
	"time"
)

// ConfirmationItem is one rendered line of a confirmation email.
type ConfirmationItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Discount  int    `json:"discount"`
}

// Confirmation carries everything needed to tell a customer their order was placed.
type Confirmation struct {
	OrderID       string             `json:"orderId"`
	Email         string             `json:"email"`
	CustomerName  string             `json:"customerName"`
	Address       string             `json:"address"`
	Phone         string             `json:"phone"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []ConfirmationItem `json:"items"`
	Total         string             `json:"total"`
	PlacedAt      time.Time          `json:"placedAt"`
}

// ConfirmationDispatcher hands a confirmation to a delivery mechanism.
// Implementations must not block order placement on delivery.
type ConfirmationDispatcher interface {
	Dispatch(ctx context.Context, confirmation Confirmation) error
}

// Mailer delivers a confirmation email synchronously.
type Mailer interface {
	SendConfirmation(ctx context.Context, confirmation Confirmation) error
}
