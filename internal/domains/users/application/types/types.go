package types

import "github.com/Apurer/go-gin-storefront/internal/domains/users/domain"

// SyncInput mirrors the identity claims of an authenticated caller into the directory.
type SyncInput struct {
	UserID  string
	Name    string
	Email   string
	Avatar  string
	IsAdmin bool
}

// UpdateProfileInput changes the caller's own profile; nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID  string
	Name    *string
	Phone   *string
	Address *string
	City    *string
	Avatar  *string
}

// RegisterInput opens an email and password account.
type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// LoginInput carries email and password credentials.
type LoginInput struct {
	Email    string
	Password string
}

// ChangePasswordInput replaces the caller's password after checking the current one.
type ChangePasswordInput struct {
	UserID          string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// Session is the result of a sign-in. RefreshToken is empty when only the access token was renewed.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}
