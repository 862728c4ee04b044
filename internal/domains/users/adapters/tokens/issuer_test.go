package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
)

func TestIssuer_AccessTokensPassTheMiddlewareVerifier(t *testing.T) {
	access := auth.NewVerifier("access-secret")
	issuer := NewIssuer(access, auth.NewVerifier("refresh-secret"), WithAccessTTL(time.Minute))
	user := &domain.User{ID: "u-1", Name: "Linh", Email: "linh@example.com", IsAdmin: true}

	token, err := issuer.IssueAccess(user)
	require.NoError(t, err)
	p, err := access.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "Linh", p.Name)
	assert.True(t, p.IsAdmin)

	_, err = issuer.VerifyRefresh(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_RefreshTokensUseTheirOwnSecret(t *testing.T) {
	access := auth.NewVerifier("access-secret")
	issuer := NewIssuer(access, auth.NewVerifier("refresh-secret"))

	refresh, err := issuer.IssueRefresh(&domain.User{ID: "u-1", IsAdmin: true})
	require.NoError(t, err)

	userID, err := issuer.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	_, err = access.Verify(refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_SharedSecretStillSeparatesKinds(t *testing.T) {
	shared := auth.NewVerifier("one-secret")
	issuer := NewIssuer(shared, nil)

	refresh, err := issuer.IssueRefresh(&domain.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = shared.Verify(refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	userID, err := issuer.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}
