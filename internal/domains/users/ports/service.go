package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
)

// Service exposes user directory and account use cases to adapters.
type Service interface {
	Register(ctx context.Context, input types.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input types.LoginInput) (*types.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.Session, error)
	ChangePassword(ctx context.Context, input types.ChangePasswordInput) error
	Sync(ctx context.Context, input types.SyncInput) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, input types.UpdateProfileInput) (*domain.User, error)
	DisplayName(ctx context.Context, id string) (string, error)
}
