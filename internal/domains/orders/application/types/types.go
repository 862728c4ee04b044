package types

import (
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

// OrderProjection transports an order together with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// Actor is the authenticated caller.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Actor         Actor
	Email         string
	Items         []domain.LineItem
	Shipping      domain.ShippingAddress
	Delivery      string
	PaymentMethod string
	Totals        domain.Totals
	// IdempotencyKey is optional; retries with the same key and payload return the original order.
	IdempotencyKey string
}

// OrderRef identifies an order on behalf of an actor.
type OrderRef struct {
	OrderID string
	Actor   Actor
}

// ListOrdersInput filters the back-office order list.
type ListOrdersInput struct {
	Actor          Actor
	DeliveryStatus string
}

// UpdateOrderInput carries an admin status change. Nil fields are left untouched.
type UpdateOrderInput struct {
	OrderID        string
	Actor          Actor
	DeliveryStatus *string
	PaymentStatus  *string
}
