package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser(" u-1 ", " Linh ", "linh@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "Linh", user.Name)

	_, err = NewUser("", "x", "")
	require.ErrorIs(t, err, ErrEmptyID)
	_, err = NewUser("u-2", "x", "not an email")
	require.ErrorIs(t, err, ErrInvalidEmail)
	_, err = NewUser("u-3", strings.Repeat("n", 121), "")
	require.ErrorIs(t, err, ErrNameTooLong)
}

func TestUpdateProfile_OnlyTouchesProvidedFields(t *testing.T) {
	user, err := NewUser("u-1", "Linh", "linh@example.com")
	require.NoError(t, err)
	user.Phone = "0900"

	city := " Hanoi "
	require.NoError(t, user.UpdateProfile(Profile{City: &city}))
	assert.Equal(t, "Hanoi", user.City)
	assert.Equal(t, "0900", user.Phone)
	assert.Equal(t, "Linh", user.Name)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Linh", (&User{ID: "u-1", Name: "Linh"}).DisplayName())
	assert.Equal(t, "linh", (&User{ID: "u-1", Email: "linh@example.com"}).DisplayName())
	assert.Equal(t, "User_abcdef", (&User{ID: "0123456789abcdef"}).DisplayName())
}

func TestCheckNewPassword(t *testing.T) {
	require.NoError(t, CheckNewPassword("s3cret!", "s3cret!"))
	require.ErrorIs(t, CheckNewPassword("abc", "abc"), ErrWeakPassword)
	require.ErrorIs(t, CheckNewPassword("s3cret!", "s3cret?"), ErrPasswordMismatch)
	long := strings.Repeat("p", 73)
	require.ErrorIs(t, CheckNewPassword(long, long), ErrPasswordTooLong)

	assert.False(t, (&User{ID: "u-1"}).HasPassword())
	assert.True(t, (&User{ID: "u-1", PasswordHash: "$2a$"}).HasPassword())
}
