package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// OrderItem is the HTTP representation of a purchased line.
type OrderItem struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Amount   int             `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	Discount int             `json:"discount,omitempty"`
}

// ShippingAddress is the HTTP representation of the delivery destination.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone"`
}

// CreateOrder is the checkout payload.
type CreateOrder struct {
	Email           string          `json:"email"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Delivery        string          `json:"delivery"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	DiscountPrice   decimal.Decimal `json:"discountPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

// UpdateOrder carries an admin status change; omitted fields stay as they are.
type UpdateOrder struct {
	DeliveryStatus *string `json:"deliveryStatus,omitempty"`
	PaymentStatus  *string `json:"paymentStatus,omitempty"`
}

// Order is the HTTP representation returned by every order endpoint.
type Order struct {
	ID              string          `json:"id"`
	User            string          `json:"user"`
	Email           string          `json:"email"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Delivery        string          `json:"delivery"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	DiscountPrice   decimal.Decimal `json:"discountPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	DeliveryStatus  string          `json:"deliveryStatus"`
	PaymentStatus   string          `json:"paymentStatus"`
	IsPaid          bool            `json:"isPaid"`
	IsDelivered     bool            `json:"isDelivered"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ToPlaceOrderInput maps the checkout payload for the given caller.
func ToPlaceOrderInput(actor ordertypes.Actor, payload CreateOrder, idempotencyKey string) ordertypes.PlaceOrderInput {
	items := make([]domain.LineItem, 0, len(payload.OrderItems))
	for _, item := range payload.OrderItems {
		items = append(items, domain.LineItem{
			ProductID: item.Product,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Amount,
			UnitPrice: item.Price,
			Discount:  item.Discount,
		})
	}
	return ordertypes.PlaceOrderInput{
		Actor: actor,
		Email: payload.Email,
		Items: items,
		Shipping: domain.ShippingAddress{
			FullName: payload.ShippingAddress.FullName,
			Address:  payload.ShippingAddress.Address,
			City:     payload.ShippingAddress.City,
			Country:  payload.ShippingAddress.Country,
			Phone:    payload.ShippingAddress.Phone,
		},
		Delivery:      payload.Delivery,
		PaymentMethod: payload.PaymentMethod,
		Totals: domain.Totals{
			Items:    payload.ItemsPrice,
			Shipping: payload.ShippingPrice,
			Tax:      payload.TaxPrice,
			Discount: payload.DiscountPrice,
			Total:    payload.TotalPrice,
		},
		IdempotencyKey: idempotencyKey,
	}
}

// ToUpdateOrderInput maps an admin status change.
func ToUpdateOrderInput(actor ordertypes.Actor, orderID string, payload UpdateOrder) ordertypes.UpdateOrderInput {
	return ordertypes.UpdateOrderInput{
		OrderID:        orderID,
		Actor:          actor,
		DeliveryStatus: payload.DeliveryStatus,
		PaymentStatus:  payload.PaymentStatus,
	}
}

// FromProjection maps an order projection into its transport form.
func FromProjection(p *ordertypes.OrderProjection) Order {
	if p == nil || p.Entity == nil {
		return Order{}
	}
	o := p.Entity
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			Product:  item.ProductID,
			Name:     item.Name,
			Image:    item.Image,
			Amount:   item.Quantity,
			Price:    item.UnitPrice,
			Discount: item.Discount,
		})
	}
	return Order{
		ID:         o.ID,
		User:       o.UserID,
		Email:      o.Email,
		OrderItems: items,
		ShippingAddress: ShippingAddress{
			FullName: o.Shipping.FullName,
			Address:  o.Shipping.Address,
			City:     o.Shipping.City,
			Country:  o.Shipping.Country,
			Phone:    o.Shipping.Phone,
		},
		Delivery:       o.Delivery,
		PaymentMethod:  string(o.PaymentMethod),
		ItemsPrice:     o.Totals.Items,
		ShippingPrice:  o.Totals.Shipping,
		TaxPrice:       o.Totals.Tax,
		DiscountPrice:  o.Totals.Discount,
		TotalPrice:     o.Totals.Total,
		DeliveryStatus: string(o.DeliveryStatus),
		PaymentStatus:  string(o.PaymentStatus),
		IsPaid:         o.PaymentStatus == domain.PaymentPaid,
		IsDelivered:    o.DeliveryStatus == domain.DeliveryDelivered,
		PaidAt:         o.PaidAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		CreatedAt:      p.Metadata.CreatedAt,
		UpdatedAt:      p.Metadata.UpdatedAt,
	}
}

// FromProjectionList maps a list of order projections.
func FromProjectionList(list []*ordertypes.OrderProjection) []Order {
	result := make([]Order, 0, len(list))
	for _, p := range list {
		result = append(result, FromProjection(p))
	}
	return result
}
