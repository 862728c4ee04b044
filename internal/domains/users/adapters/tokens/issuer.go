// Package tokens issues storefront bearer tokens for signed-in accounts.
package tokens

import (
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var _ ports.TokenIssuer = (*Issuer)(nil)

// Issuer signs access tokens with the verifier the HTTP middleware checks, and refresh
// tokens with a second verifier that may hold a different secret.
type Issuer struct {
	access     *auth.Verifier
	refresh    *auth.Verifier
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Option customises the issuer.
type Option func(*Issuer)

// WithAccessTTL sets the lifetime of access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.accessTTL = ttl
		}
	}
}

// WithRefreshTTL sets the lifetime of refresh tokens.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.refreshTTL = ttl
		}
	}
}

// NewIssuer builds an issuer. A nil refresh verifier reuses access.
func NewIssuer(access, refresh *auth.Verifier, opts ...Option) *Issuer {
	if refresh == nil {
		refresh = access
	}
	i := &Issuer{access: access, refresh: refresh, accessTTL: DefaultAccessTTL, refreshTTL: DefaultRefreshTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

func (i *Issuer) IssueAccess(user *domain.User) (string, error) {
	return i.access.Issue(principal(user), i.accessTTL)
}

// IssueRefresh carries only the id; profile claims are reloaded when the token is exchanged.
func (i *Issuer) IssueRefresh(user *domain.User) (string, error) {
	return i.refresh.IssueRefresh(auth.Principal{UserID: user.ID}, i.refreshTTL)
}

func (i *Issuer) VerifyRefresh(token string) (string, error) {
	p, err := i.refresh.VerifyRefresh(token)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func principal(user *domain.User) auth.Principal {
	return auth.Principal{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		Name:    user.Name,
		Email:   user.Email,
		Avatar:  user.Avatar,
	}
}
