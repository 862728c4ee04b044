package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// Gateway creates card payment intents through the Stripe API.
type Gateway struct {
	client paymentintent.Client
}

type Option func(*Gateway)

// WithBackend swaps the HTTP backend, mainly to point tests at a local server.
func WithBackend(backend stripe.Backend) Option {
	return func(g *Gateway) {
		if backend != nil {
			g.client.B = backend
		}
	}
}

// NewGateway returns a Stripe gateway, or an unconfigured gateway when secretKey is empty.
func NewGateway(secretKey string, opts ...Option) ports.Gateway {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return ports.UnconfiguredGateway{}
	}
	g := &Gateway{client: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Gateway) CreateIntent(ctx context.Context, req ports.IntentRequest) (*domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	pi, err := g.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return nil, fmt.Errorf("stripe %s (%s): %s", stripeErr.Type, stripeErr.Code, stripeErr.Msg)
		}
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	return &domain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
