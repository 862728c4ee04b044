package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid catalog input")
	// ErrForbidden signals the caller may not act on the resource.
	ErrForbidden = errors.New("catalog action not permitted")
	// ErrDuplicate signals the caller already owns an equivalent resource.
	ErrDuplicate = errors.New("duplicate catalog resource")
	// ErrNoProducts signals a bulk delete without any product ids.
	ErrNoProducts = errors.New("at least one product id is required")
	// ErrNotPurchased signals a review attempt without a delivered purchase.
	ErrNotPurchased = errors.New("product must be purchased and delivered before reviewing")
	// ErrCommentNotFound mirrors domain.ErrCommentNotFound for adapters that only import application.
	ErrCommentNotFound = domain.ErrCommentNotFound
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidStock),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidProductID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrEmptyText),
		errors.Is(err, domain.ErrMissingAuthor):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, domain.ErrNotCommentOwner):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, domain.ErrDuplicateComment),
		errors.Is(err, domain.ErrDuplicateName):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
