package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

type normalizedPlaceOrderInput struct {
	UserID        string               `json:"userId"`
	Email         string               `json:"email"`
	Items         []normalizedLineItem `json:"items"`
	Shipping      normalizedShipping   `json:"shipping"`
	Delivery      string               `json:"delivery"`
	PaymentMethod string               `json:"paymentMethod"`
	Totals        [5]string            `json:"totals"`
}

type normalizedLineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Discount  int    `json:"discount"`
}

type normalizedShipping struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// FingerprintPlaceOrder builds a deterministic hash of the checkout payload (excluding the idempotency key).
// Decimal amounts are compared by value, so "10" and "10.00" hash the same.
func FingerprintPlaceOrder(input ordertypes.PlaceOrderInput) (string, error) {
	payload, err := json.Marshal(normalizePlaceOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizePlaceOrderInput(input ordertypes.PlaceOrderInput) normalizedPlaceOrderInput {
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if parsed, err := domain.ParsePaymentMethod(input.PaymentMethod); err == nil {
		method = string(parsed)
	}
	items := make([]normalizedLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, normalizedLineItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Discount:  item.Discount,
		})
	}
	s := input.Shipping
	t := input.Totals
	return normalizedPlaceOrderInput{
		UserID: input.Actor.UserID,
		Email:  strings.ToLower(strings.TrimSpace(input.Email)),
		Items:  items,
		Shipping: normalizedShipping{
			FullName: strings.TrimSpace(s.FullName),
			Address:  strings.TrimSpace(s.Address),
			City:     strings.TrimSpace(s.City),
			Country:  strings.TrimSpace(s.Country),
			Phone:    strings.TrimSpace(s.Phone),
		},
		Delivery:      strings.TrimSpace(input.Delivery),
		PaymentMethod: method,
		Totals:        [5]string{t.Items.String(), t.Shipping.String(), t.Tax.String(), t.Discount.String(), t.Total.String()},
	}
}
