package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

// Service converts order totals and requests card intents from the gateway.
type Service struct {
	gateway   ports.Gateway
	vndPerUSD decimal.Decimal
}

type Option func(*Service)

// WithConversionRate overrides the VND per USD rate.
func WithConversionRate(rate decimal.Decimal) Option {
	return func(s *Service) {
		if rate.IsPositive() {
			s.vndPerUSD = rate
		}
	}
}

func NewService(gateway ports.Gateway, opts ...Option) *Service {
	if gateway == nil {
		gateway = ports.UnconfiguredGateway{}
	}
	s := &Service{gateway: gateway, vndPerUSD: domain.DefaultVNDPerUSD}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateIntent has no side effect of its own, so gateway failures surface directly.
func (s *Service) CreateIntent(ctx context.Context, input types.CreateIntentInput) (*domain.Intent, error) {
	amount, err := domain.ChargeAmount(input.TotalPrice, s.vndPerUSD)
	if err != nil {
		return nil, mapError(err)
	}
	req := ports.IntentRequest{
		Amount:         amount,
		Currency:       domain.SettlementCurrency,
		IdempotencyKey: strings.TrimSpace(input.IdempotencyKey),
	}
	if input.UserID != "" {
		req.Metadata = map[string]string{"user_id": input.UserID, "total_vnd": input.TotalPrice.String()}
	}
	intent, err := s.gateway.CreateIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return intent, nil
}

var _ ports.Service = (*Service)(nil)
