package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"
	usermemory "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/memory"
	userdomain "github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
)

func TestUsers_Lookup(t *testing.T) {
	repo := usermemory.NewRepository()
	ctx := context.Background()
	user, err := userdomain.NewUser("u-1", "", "linh@example.com")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, user)
	require.NoError(t, err)

	dir := NewUsers(repo)
	profile, err := dir.Lookup(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "linh@example.com", profile.Email)
	assert.Empty(t, profile.Name)

	_, err = dir.Lookup(ctx, "ghost")
	require.ErrorIs(t, err, chatports.ErrUnknownUser)
}
