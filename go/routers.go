package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// Access is the authentication level a route requires.
type Access int

const (
	AccessPublic Access = iota
	AccessUser
	AccessAdmin
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// Access gates the route behind the auth middleware.
	Access Access
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API section.
type ApiHandleFunctions struct {
	CatalogAPI CatalogAPI
	OrderAPI   OrderAPI
	ChatAPI    ChatAPI
	PaymentAPI PaymentAPI
	UserAPI    UserAPI
}

// NewRouter returns a new router. middleware runs before every route, ahead of authentication.
func NewRouter(handleFunctions ApiHandleFunctions, authMiddleware *auth.Middleware, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	return NewRouterWithGinEngine(router, handleFunctions, authMiddleware)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, authMiddleware *auth.Middleware) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := make([]gin.HandlerFunc, 0, 3)
		switch route.Access {
		case AccessUser:
			handlers = append(handlers, authMiddleware.RequireUser())
		case AccessAdmin:
			handlers = append(handlers, authMiddleware.RequireUser(), authMiddleware.RequireAdmin())
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc is the default handler for not yet implemented routes.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(h ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", AccessPublic, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }},

		{"ListProducts", http.MethodGet, "/api/products", AccessPublic, h.CatalogAPI.ListProducts},
		{"GetProduct", http.MethodGet, "/api/products/:productId", AccessPublic, h.CatalogAPI.GetProduct},
		{"CreateProduct", http.MethodPost, "/api/products", AccessAdmin, h.CatalogAPI.CreateProduct},
		{"UpdateProduct", http.MethodPut, "/api/products/:productId", AccessAdmin, h.CatalogAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/api/products/:productId", AccessAdmin, h.CatalogAPI.DeleteProduct},
		{"DeleteProducts", http.MethodDelete, "/api/products", AccessAdmin, h.CatalogAPI.DeleteProducts},
		{"ListProductTypes", http.MethodGet, "/api/product-types", AccessPublic, h.CatalogAPI.ListProductTypes},
		{"ListComments", http.MethodGet, "/api/products/:productId/comments", AccessPublic, h.CatalogAPI.ListComments},
		{"AddComment", http.MethodPost, "/api/products/:productId/comments", AccessUser, h.CatalogAPI.AddComment},
		{"UpdateComment", http.MethodPut, "/api/products/:productId/comments/:commentId", AccessUser, h.CatalogAPI.UpdateComment},
		{"DeleteComment", http.MethodDelete, "/api/products/:productId/comments/:commentId", AccessUser, h.CatalogAPI.DeleteComment},
		{"ToggleLike", http.MethodPost, "/api/products/:productId/comments/:commentId/like", AccessUser, h.CatalogAPI.ToggleLike},
		{"RatingStats", http.MethodGet, "/api/products/:productId/rating-stats", AccessPublic, h.CatalogAPI.RatingStats},

		{"PlaceOrder", http.MethodPost, "/api/orders", AccessUser, h.OrderAPI.PlaceOrder},
		{"ListOrders", http.MethodGet, "/api/orders", AccessAdmin, h.OrderAPI.ListOrders},
		{"ListMyOrders", http.MethodGet, "/api/orders/mine", AccessUser, h.OrderAPI.ListMyOrders},
		{"GetOrder", http.MethodGet, "/api/orders/:orderId", AccessUser, h.OrderAPI.GetOrder},
		{"CancelOrder", http.MethodDelete, "/api/orders/:orderId", AccessUser, h.OrderAPI.CancelOrder},
		{"UpdateOrder", http.MethodPut, "/api/orders/:orderId", AccessAdmin, h.OrderAPI.UpdateOrder},
		{"ReorderOrder", http.MethodPost, "/api/orders/:orderId/reorder", AccessUser, h.OrderAPI.ReorderOrder},
		{"PayOrder", http.MethodPost, "/api/orders/:orderId/pay", AccessUser, h.OrderAPI.PayOrder},

		{"CreatePaymentIntent", http.MethodPost, "/api/payments/intent", AccessUser, h.PaymentAPI.CreateIntent},

		{"GetChatHistory", http.MethodGet, "/api/chat/history/:userId", AccessUser, h.ChatAPI.GetHistory},
		{"GetConversations", http.MethodGet, "/api/chat/conversations", AccessAdmin, h.ChatAPI.GetConversations},
		{"MarkChatRead", http.MethodPut, "/api/chat/mark-read", AccessUser, h.ChatAPI.MarkRead},
		{"MarkAllChatRead", http.MethodPut, "/api/chat/mark-all-read", AccessAdmin, h.ChatAPI.MarkAllRead},
		{"GetUnreadCount", http.MethodGet, "/api/chat/unread/:userId", AccessUser, h.ChatAPI.GetUnreadCount},
		{"ConnectChat", http.MethodGet, "/ws/chat", AccessUser, h.ChatAPI.Connect},

		{"SignUp", http.MethodPost, "/api/users/sign-up", AccessPublic, h.UserAPI.SignUp},
		{"SignIn", http.MethodPost, "/api/users/sign-in", AccessPublic, h.UserAPI.SignIn},
		{"RefreshToken", http.MethodPost, "/api/users/refresh-token", AccessPublic, h.UserAPI.RefreshToken},
		{"GetMe", http.MethodGet, "/api/users/me", AccessUser, h.UserAPI.GetMe},
		{"UpdateMe", http.MethodPut, "/api/users/me", AccessUser, h.UserAPI.UpdateMe},
		{"ChangePassword", http.MethodPut, "/api/users/me/password", AccessUser, h.UserAPI.ChangePassword},
	}
}
