package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// Service exposes payment use cases to adapters.
type Service interface {
	CreateIntent(ctx context.Context, input types.CreateIntentInput) (*domain.Intent, error)
}
