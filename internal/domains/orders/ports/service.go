package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
)

// Service defines the order use cases exposed to adapters (inbound/driving port).
type Service interface {
	PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error)
	GetOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error)
	ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderProjection, error)
	ListUserOrders(ctx context.Context, actor ordertypes.Actor) ([]*ordertypes.OrderProjection, error)
	CancelOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error)
	UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error)
	ReorderOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error)
	PayOrder(ctx context.Context, ref ordertypes.OrderRef) (*ordertypes.OrderProjection, error)
}
