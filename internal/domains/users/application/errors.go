package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrDuplicate signals the email already belongs to another account.
	ErrDuplicate = errors.New("account already exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	// ErrInvalidRefreshToken covers expired, forged and access tokens presented for refresh.
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
	// ErrIncorrectPassword means the current password given for a change did not match.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrTokensUnavailable means the service was built without a token issuer.
	ErrTokensUnavailable = errors.New("token issuing is not configured")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyID) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmailRequired) ||
		errors.Is(err, domain.ErrNameTooLong) ||
		errors.Is(err, domain.ErrWeakPassword) ||
		errors.Is(err, domain.ErrPasswordTooLong) ||
		errors.Is(err, domain.ErrPasswordMismatch) ||
		errors.Is(err, ErrIncorrectPassword) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrEmailTaken) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
