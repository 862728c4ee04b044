package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken means another account with a password already signs in with the address.
	ErrEmailTaken = errors.New("email is already registered")
)

// Repository stores profiles. Emails of accounts with a password are unique ignoring case;
// Create and Upsert fail with ErrEmailTaken otherwise.
type Repository interface {
	// Create inserts a new account and never overwrites an existing one.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Upsert inserts or replaces the user keyed by ID.
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail finds the account with a password registered under email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
