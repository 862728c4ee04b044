package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrInvalidTransition signals a status change the order cannot make from its current state.
	ErrInvalidTransition = errors.New("invalid order transition")
	// ErrOutOfStock signals at least one line could not be reserved.
	ErrOutOfStock = errors.New("out of stock")
	// ErrForbidden signals the caller may not act on the order.
	ErrForbidden = errors.New("order action not permitted")
	// ErrDuplicate signals an idempotency key reused with a different payload.
	ErrDuplicate = errors.New("duplicate order request")
	// ErrNothingToUpdate signals an admin update without any status.
	ErrNothingToUpdate = errors.New("deliveryStatus or paymentStatus is required")
	// ErrMissingActor signals an unauthenticated call.
	ErrMissingActor = errors.New("authenticated user required")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidTotals),
		errors.Is(err, domain.ErrInvalidShipping),
		errors.Is(err, domain.ErrMissingDelivery),
		errors.Is(err, domain.ErrInvalidDeliveryStatus),
		errors.Is(err, domain.ErrInvalidPaymentStatus),
		errors.Is(err, ports.ErrUnknownProduct):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, domain.ErrCancelDelivered),
		errors.Is(err, domain.ErrNotCancelled),
		errors.Is(err, domain.ErrOrderCancelled),
		errors.Is(err, domain.ErrRefundNotAllowed),
		errors.Is(err, domain.ErrDeliveredNeedsPaid),
		errors.Is(err, domain.ErrReactivateViaReorder):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, ports.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ErrOutOfStock, err)
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
