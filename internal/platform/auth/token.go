// Package auth verifies bearer tokens and exposes the authenticated principal to handlers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no bearer token accompanies the request.
	ErrMissingToken = errors.New("missing access token")
	// ErrInvalidToken is returned when the token fails signature or claim validation.
	ErrInvalidToken = errors.New("invalid access token")
)

// Token kinds carried in the "type" claim. Tokens without one are access tokens.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims carries the identity fields embedded in access and refresh tokens.
type Claims struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Type    string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller handed to the application layer.
type Principal struct {
	UserID  string
	IsAdmin bool
	Name    string
	Email   string
	Avatar  string
}

// Verifier validates HMAC-signed access tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier builds a verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses the raw access token (with or without a "Bearer " prefix) into a principal.
// Refresh tokens are rejected.
func (v *Verifier) Verify(raw string) (Principal, error) {
	claims, err := v.parse(raw)
	if err != nil {
		return Principal{}, err
	}
	if claims.Type != "" && claims.Type != KindAccess {
		return Principal{}, fmt.Errorf("%w: %s token cannot authorize requests", ErrInvalidToken, claims.Type)
	}
	return claims.principal(), nil
}

// VerifyRefresh accepts only tokens minted by IssueRefresh.
func (v *Verifier) VerifyRefresh(raw string) (Principal, error) {
	claims, err := v.parse(raw)
	if err != nil {
		return Principal{}, err
	}
	if claims.Type != KindRefresh {
		return Principal{}, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims.principal(), nil
}

// Issue signs an access token for the principal.
func (v *Verifier) Issue(p Principal, ttl time.Duration) (string, error) {
	return v.sign(p, ttl, KindAccess)
}

// IssueRefresh signs a long-lived token that can only be exchanged for new access tokens.
func (v *Verifier) IssueRefresh(p Principal, ttl time.Duration) (string, error) {
	return v.sign(p, ttl, KindRefresh)
}

func (v *Verifier) parse(raw string) (*Claims, error) {
	raw = stripBearer(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}
	if v == nil || len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier not configured", ErrInvalidToken)
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) sign(p Principal, ttl time.Duration, kind string) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", errors.New("verifier not configured")
	}
	now := v.now()
	claims := Claims{
		ID:      p.UserID,
		IsAdmin: p.IsAdmin,
		Name:    p.Name,
		Email:   p.Email,
		Avatar:  p.Avatar,
		Type:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (c *Claims) principal() Principal {
	return Principal{
		UserID:  c.ID,
		IsAdmin: c.IsAdmin,
		Name:    c.Name,
		Email:   c.Email,
		Avatar:  c.Avatar,
	}
}

func stripBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
