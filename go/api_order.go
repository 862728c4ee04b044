package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// IdempotencyKeyHeader lets clients retry checkout without placing a second order.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service orderports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service orderports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Post /api/orders
// Place an order and reserve its stock
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	input := orderhttpmapper.ToPlaceOrderInput(orderActor(c), payload, c.GetHeader(IdempotencyKeyHeader))
	placed, err := api.service.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromProjection(placed))
}

// Get /api/orders/:orderId
// Find an order the caller owns
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), orderRef(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Get /api/orders/mine
// List the caller's orders, newest first
func (api *OrderAPI) ListMyOrders(c *gin.Context) {
	orders, err := api.service.ListUserOrders(c.Request.Context(), orderActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjectionList(orders))
}

// Get /api/orders
// List every order, optionally filtered by deliveryStatus
func (api *OrderAPI) ListOrders(c *gin.Context) {
	input := ordertypes.ListOrdersInput{Actor: orderActor(c), DeliveryStatus: c.Query("deliveryStatus")}
	orders, err := api.service.ListOrders(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjectionList(orders))
}

// Delete /api/orders/:orderId
// Cancel an order and restore its stock
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	order, err := api.service.CancelOrder(c.Request.Context(), orderRef(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Put /api/orders/:orderId
// Change delivery and/or payment status
func (api *OrderAPI) UpdateOrder(c *gin.Context) {
	var payload orderhttpmapper.UpdateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	input := orderhttpmapper.ToUpdateOrderInput(orderActor(c), c.Param("orderId"), payload)
	order, err := api.service.UpdateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Post /api/orders/:orderId/reorder
// Reactivate a cancelled order, reserving its stock again
func (api *OrderAPI) ReorderOrder(c *gin.Context) {
	order, err := api.service.ReorderOrder(c.Request.Context(), orderRef(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Post /api/orders/:orderId/pay
// Mark an order paid
func (api *OrderAPI) PayOrder(c *gin.Context) {
	order, err := api.service.PayOrder(c.Request.Context(), orderRef(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

func orderActor(c *gin.Context) ordertypes.Actor {
	principal, _ := auth.PrincipalFrom(c)
	return ordertypes.Actor{UserID: principal.UserID, IsAdmin: principal.IsAdmin}
}

func orderRef(c *gin.Context) ordertypes.OrderRef {
	return ordertypes.OrderRef{OrderID: c.Param("orderId"), Actor: orderActor(c)}
}
