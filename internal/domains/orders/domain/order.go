package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStatus enumerates fulfilment progression.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// PaymentStatus enumerates settlement progression.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod distinguishes cash on delivery from gateway payments.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentOnline         PaymentMethod = "online"
)

var (
	ErrInvalidEmail          = errors.New("a valid email is required")
	ErrNoItems               = errors.New("order must contain at least one item")
	ErrInvalidItem           = errors.New("order item requires a product and a positive quantity")
	ErrInvalidPaymentMethod  = errors.New("payment method must be cod or online")
	ErrInvalidTotals         = errors.New("order prices must not be negative")
	ErrInvalidShipping       = errors.New("shipping address requires full name, address, city and phone")
	ErrMissingDelivery       = errors.New("a delivery option is required")
	ErrInvalidDeliveryStatus = errors.New("delivery status is invalid")
	ErrInvalidPaymentStatus  = errors.New("payment status is invalid")

	ErrCancelDelivered      = errors.New("delivered orders cannot be cancelled")
	ErrNotCancelled         = errors.New("only cancelled orders can be reordered")
	ErrOrderCancelled       = errors.New("order is cancelled")
	ErrRefundNotAllowed     = errors.New("only paid online orders can be refunded")
	ErrDeliveredNeedsPaid   = errors.New("delivered orders must stay paid")
	ErrReactivateViaReorder = errors.New("cancelled orders return to pending only through reorder")
)

// LineItem is one product with its price snapshot.
type LineItem struct {
	ProductID string
	Name      string
	Image     string
	Quantity  int
	UnitPrice decimal.Decimal
	// Discount is the product discount percent at purchase time.
	Discount int
}

// ShippingAddress is the delivery destination snapshot.
type ShippingAddress struct {
	FullName string
	Address  string
	City     string
	Country  string
	Phone    string
}

// Totals are the client-computed price breakdown.
type Totals struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Params carries everything needed to open an order.
type Params struct {
	ID            string
	UserID        string
	Email         string
	Items         []LineItem
	Shipping      ShippingAddress
	Delivery      string
	PaymentMethod PaymentMethod
	Totals        Totals
}

// Order is the purchase aggregate over deliveryStatus × paymentStatus.
type Order struct {
	ID             string
	UserID         string
	Email          string
	Items          []LineItem
	Shipping       ShippingAddress
	Delivery       string
	PaymentMethod  PaymentMethod
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
	PaidAt         *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	Totals         Totals
	// StockReserved is true while the order holds stock for its line items.
	// It guards release so stock is restored at most once per reservation.
	StockReserved bool
	// ReleaseClaimedAt is when the latest attempt to hand stock back started.
	ReleaseClaimedAt *time.Time
	// Version is the optimistic concurrency token maintained by repositories.
	Version int64

	events []Event
}

// NewOrder validates params and opens a pending order.
// Online orders are paid at creation; cash-on-delivery orders start unpaid.
func NewOrder(p Params, now time.Time) (*Order, error) {
	order := &Order{
		ID:             strings.TrimSpace(p.ID),
		UserID:         strings.TrimSpace(p.UserID),
		Email:          strings.TrimSpace(p.Email),
		Items:          append([]LineItem(nil), p.Items...),
		Shipping:       p.Shipping,
		Delivery:       strings.TrimSpace(p.Delivery),
		PaymentMethod:  p.PaymentMethod,
		DeliveryStatus: DeliveryPending,
		PaymentStatus:  PaymentUnpaid,
		Totals:         p.Totals,
	}
	if order.PaymentMethod == PaymentOnline {
		order.markPaid(now)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	order.record(OrderPlaced{BaseEvent: BaseEvent{Timestamp: now}, OrderID: order.ID, UserID: order.UserID, Email: order.Email})
	return order, nil
}

// ParsePaymentMethod accepts the canonical values plus common client aliases.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cod", "cash", "cash_on_delivery", "cash-on-delivery":
		return PaymentCashOnDelivery, nil
	case "online", "stripe", "card":
		return PaymentOnline, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if _, err := mail.ParseAddress(o.Email); err != nil || o.Email == "" {
		return ErrInvalidEmail
	}
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return ErrInvalidItem
		}
	}
	if o.PaymentMethod != PaymentCashOnDelivery && o.PaymentMethod != PaymentOnline {
		return ErrInvalidPaymentMethod
	}
	for _, amount := range []decimal.Decimal{o.Totals.Items, o.Totals.Shipping, o.Totals.Tax, o.Totals.Discount, o.Totals.Total} {
		if amount.IsNegative() {
			return ErrInvalidTotals
		}
	}
	s := o.Shipping
	if blank(s.FullName) || blank(s.Address) || blank(s.City) || blank(s.Phone) {
		return ErrInvalidShipping
	}
	if o.Delivery == "" {
		return ErrMissingDelivery
	}
	if !isValidDelivery(o.DeliveryStatus) {
		return ErrInvalidDeliveryStatus
	}
	if !isValidPayment(o.PaymentStatus) {
		return ErrInvalidPaymentStatus
	}
	return nil
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != "" && o.UserID == userID
}

// Contains reports whether the order has a line for productID.
func (o *Order) Contains(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// MarkReserved records that stock is held for every line item.
func (o *Order) MarkReserved() {
	o.StockReserved = true
}

// Deliver moves the order to delivered. Cash-on-delivery orders are settled on delivery.
func (o *Order) Deliver(now time.Time) error {
	switch o.DeliveryStatus {
	case DeliveryCancelled:
		return ErrOrderCancelled
	case DeliveryDelivered:
		return nil
	}
	if o.PaymentStatus == PaymentRefunded {
		return ErrDeliveredNeedsPaid
	}
	if o.PaymentMethod == PaymentCashOnDelivery && o.PaymentStatus == PaymentUnpaid {
		o.markPaid(now)
	}
	if o.PaymentStatus != PaymentPaid {
		return ErrDeliveredNeedsPaid
	}
	o.DeliveryStatus = DeliveryDelivered
	o.DeliveredAt = &now
	o.record(OrderDelivered{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID})
	return nil
}

// Cancel moves a pending order to cancelled and reports whether the caller must
// release stock. Cancelling an already cancelled order is a no-op.
func (o *Order) Cancel(now time.Time) (bool, error) {
	switch o.DeliveryStatus {
	case DeliveryCancelled:
		return false, nil
	case DeliveryDelivered:
		return false, ErrCancelDelivered
	}
	o.DeliveryStatus = DeliveryCancelled
	o.CancelledAt = &now
	if o.StockReserved {
		o.ReleaseClaimedAt = &now
	}
	if o.PaymentMethod != PaymentCashOnDelivery && o.PaymentStatus != PaymentUnpaid {
		o.PaymentStatus = PaymentRefunded
	} else {
		o.PaymentStatus = PaymentUnpaid
		o.PaidAt = nil
	}
	o.record(OrderCancelled{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, StockReleased: o.StockReserved})
	return o.StockReserved, nil
}

// StockReturned records that a cancelled order's stock is back in the ledger.
// Until then the order keeps StockReserved so a failed release can be retried.
func (o *Order) StockReturned() {
	if o.DeliveryStatus == DeliveryCancelled {
		o.StockReserved = false
		o.ReleaseClaimedAt = nil
	}
}

// ClaimStockRelease starts another attempt to hand back the stock of a cancelled
// order. It refuses while the previous attempt is younger than wait, so a retry
// never overlaps a release that is still in flight.
func (o *Order) ClaimStockRelease(now time.Time, wait time.Duration) bool {
	if o.DeliveryStatus != DeliveryCancelled || !o.StockReserved {
		return false
	}
	if o.ReleaseClaimedAt != nil && now.Sub(*o.ReleaseClaimedAt) < wait {
		return false
	}
	o.ReleaseClaimedAt = &now
	return true
}

// Reactivate returns a cancelled order to pending once it holds stock again, either
// re-reserved by the caller or never returned after the cancel.
func (o *Order) Reactivate(now time.Time) error {
	if o.DeliveryStatus != DeliveryCancelled {
		return ErrNotCancelled
	}
	o.DeliveryStatus = DeliveryPending
	o.CancelledAt = nil
	o.DeliveredAt = nil
	o.PaidAt = nil
	o.PaymentStatus = PaymentUnpaid
	if o.PaymentMethod == PaymentOnline {
		o.markPaid(now)
	}
	o.StockReserved = true
	o.ReleaseClaimedAt = nil
	o.record(OrderReactivated{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID})
	return nil
}

// Reopen moves a delivered order back to pending for back-office corrections.
func (o *Order) Reopen() error {
	switch o.DeliveryStatus {
	case DeliveryCancelled:
		return ErrReactivateViaReorder
	case DeliveryDelivered:
		o.DeliveryStatus = DeliveryPending
		o.DeliveredAt = nil
	}
	return nil
}

// SetPaymentStatus applies an explicit payment transition.
func (o *Order) SetPaymentStatus(status PaymentStatus, now time.Time) error {
	if !isValidPayment(status) {
		return ErrInvalidPaymentStatus
	}
	if status == o.PaymentStatus {
		return nil
	}
	switch status {
	case PaymentRefunded:
		if o.PaymentStatus != PaymentPaid || o.PaymentMethod == PaymentCashOnDelivery {
			return ErrRefundNotAllowed
		}
		if o.DeliveryStatus == DeliveryDelivered {
			return ErrDeliveredNeedsPaid
		}
	case PaymentUnpaid:
		if o.DeliveryStatus == DeliveryDelivered {
			return ErrDeliveredNeedsPaid
		}
	case PaymentPaid:
		if o.DeliveryStatus == DeliveryCancelled {
			return ErrOrderCancelled
		}
	}
	from := o.PaymentStatus
	o.PaymentStatus = status
	if status == PaymentPaid {
		o.PaidAt = &now
	} else if status == PaymentUnpaid {
		o.PaidAt = nil
	}
	o.record(OrderPaymentChanged{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, From: from, To: status})
	return nil
}

// MarkPaid settles the order, e.g. after the gateway confirmed payment.
func (o *Order) MarkPaid(now time.Time) error {
	return o.SetPaymentStatus(PaymentPaid, now)
}

// StockLines returns the quantities held by the order.
func (o *Order) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// Clone returns a deep copy without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	clone.PaidAt = copyTime(o.PaidAt)
	clone.DeliveredAt = copyTime(o.DeliveredAt)
	clone.CancelledAt = copyTime(o.CancelledAt)
	clone.ReleaseClaimedAt = copyTime(o.ReleaseClaimedAt)
	clone.events = nil
	return &clone
}

func (o *Order) markPaid(now time.Time) {
	o.PaymentStatus = PaymentPaid
	o.PaidAt = &now
}

// StockLine is a quantity of one product held by an order.
type StockLine struct {
	ProductID string
	Quantity  int
}

// ParseDeliveryStatus validates a raw delivery status.
func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	status := DeliveryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !isValidDelivery(status) {
		return "", ErrInvalidDeliveryStatus
	}
	return status, nil
}

// ParsePaymentStatus validates a raw payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !isValidPayment(status) {
		return "", ErrInvalidPaymentStatus
	}
	return status, nil
}

func isValidDelivery(status DeliveryStatus) bool {
	switch status {
	case DeliveryPending, DeliveryDelivered, DeliveryCancelled:
		return true
	default:
		return false
	}
}

func isValidPayment(status PaymentStatus) bool {
	switch status {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	default:
		return false
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
