package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/chat/domain"
)

var (
	// ErrInvalidInput signals a malformed message or identifier.
	ErrInvalidInput = errors.New("invalid chat input")
	// ErrForbidden signals the actor may not read or write the thread.
	ErrForbidden = errors.New("chat action not permitted")
	// ErrMissingActor signals an unauthenticated call.
	ErrMissingActor = errors.New("chat actor is required")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEmptyParticipant),
		errors.Is(err, domain.ErrMissingAgentSide),
		errors.Is(err, domain.ErrEmptyText),
		errors.Is(err, domain.ErrTextTooLong),
		errors.Is(err, domain.ErrInvalidRole):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
