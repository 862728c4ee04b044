package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlaced is raised when a new order has reserved its stock.
type OrderPlaced struct {
	BaseEvent
	OrderID string
	UserID  string
	Email   string
}

func (e OrderPlaced) EventName() string { return "orders.order.placed" }

// OrderDelivered is raised when the order reaches the customer.
type OrderDelivered struct {
	BaseEvent
	OrderID string
}

func (e OrderDelivered) EventName() string { return "orders.order.delivered" }

// OrderCancelled is raised on cancellation; StockReleased tells whether stock is to be handed back.
type OrderCancelled struct {
	BaseEvent
	OrderID       string
	StockReleased bool
}

func (e OrderCancelled) EventName() string { return "orders.order.cancelled" }

// OrderReactivated is raised when a cancelled order is reordered.
type OrderReactivated struct {
	BaseEvent
	OrderID string
}

func (e OrderReactivated) EventName() string { return "orders.order.reactivated" }

// OrderPaymentChanged is raised on every explicit payment transition.
type OrderPaymentChanged struct {
	BaseEvent
	OrderID string
	From    PaymentStatus
	To      PaymentStatus
}

func (e OrderPaymentChanged) EventName() string { return "orders.order.payment_changed" }

// Events returns events recorded since the last ClearEvents.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// ClearEvents drops recorded events once they were handled.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(e Event) {
	o.events = append(o.events, e)
}
