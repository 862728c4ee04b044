package mapper

import (
	usertypes "github.com/Apurer/go-gin-storefront/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
)

// User is the HTTP representation of a profile.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// ProfileUpdate preserves field presence for partial profile edits.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`
}

// FromDomainUser maps a domain user into a transport User.
func FromDomainUser(u *domain.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		City:    u.City,
		Avatar:  u.Avatar,
		IsAdmin: u.IsAdmin,
	}
}

// ToUpdateProfileInput targets the caller's own profile.
func ToUpdateProfileInput(userID string, payload ProfileUpdate) usertypes.UpdateProfileInput {
	return usertypes.UpdateProfileInput{
		UserID:  userID,
		Name:    payload.Name,
		Phone:   payload.Phone,
		Address: payload.Address,
		City:    payload.City,
		Avatar:  payload.Avatar,
	}
}

// SignUp opens an email and password account.
type SignUp struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// SignIn carries email and password credentials.
type SignIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshToken exchanges a refresh token for a new access token.
type RefreshToken struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePassword replaces the caller's password.
type ChangePassword struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// Session is returned by sign-in and token refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}

// ToRegisterInput maps a sign-up payload.
func ToRegisterInput(payload SignUp) usertypes.RegisterInput {
	return usertypes.RegisterInput{
		Name:            payload.Name,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	}
}

// ToChangePasswordInput targets the caller's own account.
func ToChangePasswordInput(userID string, payload ChangePassword) usertypes.ChangePasswordInput {
	return usertypes.ChangePasswordInput{
		UserID:          userID,
		OldPassword:     payload.OldPassword,
		NewPassword:     payload.NewPassword,
		ConfirmPassword: payload.ConfirmPassword,
	}
}

// FromSession maps a sign-in result.
func FromSession(s *usertypes.Session) Session {
	if s == nil {
		return Session{}
	}
	return Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         FromDomainUser(s.User),
	}
}
