package ports

import (
	"context"
	"errors"
)

// ErrUnknownUser is returned by a Directory that has no profile for the id.
var ErrUnknownUser = errors.New("user not found in directory")

// Profile is the subset of a user record chat needs for display.
type Profile struct {
	Name  string
	Email string
}

// Directory resolves customer profiles for conversation labels.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Profile, error)
}
