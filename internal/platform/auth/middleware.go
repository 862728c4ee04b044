package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const principalKey = "storefront.principal"

// Middleware authenticates requests and enforces admin-only routes.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware wraps a verifier for use in gin route groups.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireUser rejects requests without a valid token and stores the principal on the context.
func (m *Middleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.verifier.Verify(TokenFromRequest(c))
		if err != nil {
			detail := "invalid or expired access token"
			if errors.Is(err, ErrMissingToken) {
				detail = "access token is required"
			}
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail(detail))
			c.Abort()
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.IsAdmin {
			apierrors.Respond(c, apierrors.ErrForbidden.WithDetail("administrator access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireUser.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}

// WithPrincipal stores a principal on the context, bypassing token checks.
func WithPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// TokenFromRequest reads the token header used by storefront clients, falling back to
// Authorization and finally the websocket query string.
func TokenFromRequest(c *gin.Context) string {
	if raw := c.GetHeader("token"); raw != "" {
		return raw
	}
	if raw := c.GetHeader("Authorization"); raw != "" {
		return raw
	}
	return c.Query("token")
}
