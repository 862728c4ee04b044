package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

var (
	// ErrInvalidInput signals an unusable total.
	ErrInvalidInput = errors.New("invalid payment input")
	// ErrUpstream signals the payment processor failed or is unavailable.
	ErrUpstream = errors.New("payment gateway error")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTotal) ||
		errors.Is(err, domain.ErrAmountTooSmall) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
