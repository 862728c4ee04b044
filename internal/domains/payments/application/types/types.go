package types

import "github.com/shopspring/decimal"

// CreateIntentInput asks for a card intent covering an order total in VND.
type CreateIntentInput struct {
	UserID         string
	TotalPrice     decimal.Decimal
	IdempotencyKey string
}
