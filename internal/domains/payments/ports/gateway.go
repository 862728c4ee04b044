package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// ErrNotConfigured is returned by gateways that lack credentials.
var ErrNotConfigured = errors.New("payment gateway not configured")

// IntentRequest is the amount to authorise, in minor units of Currency.
type IntentRequest struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// Gateway creates payment intents with an external processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*domain.Intent, error)
}

// UnconfiguredGateway rejects every request with ErrNotConfigured.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) CreateIntent(context.Context, IntentRequest) (*domain.Intent, error) {
	return nil, ErrNotConfigured
}
