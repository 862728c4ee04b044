package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SettlementCurrency is the currency charged by the card processor.
const SettlementCurrency = "usd"

// DefaultVNDPerUSD is the fallback conversion rate for order totals.
var DefaultVNDPerUSD = decimal.NewFromInt(25000)

var (
	ErrInvalidTotal   = errors.New("total price must be greater than zero")
	ErrInvalidRate    = errors.New("conversion rate must be greater than zero")
	ErrAmountTooSmall = errors.New("total price converts to less than one dollar")
)

// Intent is a card-payment intent created by the gateway.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// ChargeAmount converts an order total in VND to whole US dollars, expressed in cents.
func ChargeAmount(totalVND, vndPerUSD decimal.Decimal) (int64, error) {
	if !totalVND.IsPositive() {
		return 0, ErrInvalidTotal
	}
	if !vndPerUSD.IsPositive() {
		return 0, ErrInvalidRate
	}
	dollars := totalVND.Div(vndPerUSD).Round(0)
	if dollars.IsZero() {
		return 0, ErrAmountTooSmall
	}
	return dollars.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
