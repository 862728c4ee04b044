package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	paymenttypes "github.com/Apurer/go-gin-storefront/internal/domains/payments/application/types"
	paymentports "github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

// PaymentAPI issues card payment intents.
type PaymentAPI struct {
	service paymentports.Service
}

// NewPaymentAPI wires dependencies.
func NewPaymentAPI(service paymentports.Service) PaymentAPI {
	return PaymentAPI{service: service}
}

type createIntentRequest struct {
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Post /api/payments/intent
// Create a card payment intent for an order total in VND
func (api *PaymentAPI) CreateIntent(c *gin.Context) {
	var payload createIntentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	principal, _ := auth.PrincipalFrom(c)
	input := paymenttypes.CreateIntentInput{
		UserID:         principal.UserID,
		TotalPrice:     payload.TotalPrice,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}
	intent, err := api.service.CreateIntent(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, createIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	})
}
