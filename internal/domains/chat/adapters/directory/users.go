package directory

import (
	"context"
	"errors"

	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
	userdomain "github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
)

// UserLookup is the slice of the users service chat relies on.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Users resolves chat profiles from the users directory.
type Users struct {
	users UserLookup
}

var _ chatports.Directory = (*Users)(nil)

func NewUsers(users UserLookup) *Users {
	return &Users{users: users}
}

func (d *Users) Lookup(ctx context.Context, userID string) (chatports.Profile, error) {
	if d == nil || d.users == nil {
		return chatports.Profile{}, chatports.ErrUnknownUser
	}
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userports.ErrNotFound) {
			return chatports.Profile{}, chatports.ErrUnknownUser
		}
		return chatports.Profile{}, err
	}
	return chatports.Profile{Name: user.Name, Email: user.Email}, nil
}
