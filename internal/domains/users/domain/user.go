package domain

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmptyID          = errors.New("user id is required")
	ErrInvalidEmail     = errors.New("email address is malformed")
	ErrEmailRequired    = errors.New("email is required")
	ErrNameTooLong      = errors.New("name must be at most 120 characters")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
)

const (
	maxNameLength     = 120
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes  = 72
)

// User is a storefront customer or administrator profile.
type User struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Avatar  string
	IsAdmin bool

	// PasswordHash is empty for profiles that only ever signed in with an external token.
	PasswordHash string
}

// NewUser builds a user ensuring required invariants.
func NewUser(id, name, email string) (*User, error) {
	user := &User{ID: strings.TrimSpace(id)}
	if user.ID == "" {
		return nil, ErrEmptyID
	}
	if err := user.Rename(name); err != nil {
		return nil, err
	}
	if err := user.ChangeEmail(email); err != nil {
		return nil, err
	}
	return user, nil
}

// Rename trims and bounds the display name. An empty name is allowed.
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > maxNameLength {
		return ErrNameTooLong
	}
	u.Name = name
	return nil
}

// ChangeEmail validates a non-empty address.
func (u *User) ChangeEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ErrInvalidEmail
		}
	}
	u.Email = email
	return nil
}

// CheckNewPassword enforces the password policy on a new password and its confirmation.
func CheckNewPassword(password, confirm string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// HasPassword reports whether the user can sign in with email and password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Profile carries optional contact fields; nil leaves a field unchanged.
type Profile struct {
	Name    *string
	Phone   *string
	Address *string
	City    *string
	Avatar  *string
}

// UpdateProfile applies the non-nil fields of p.
func (u *User) UpdateProfile(p Profile) error {
	if p.Name != nil {
		if err := u.Rename(*p.Name); err != nil {
			return err
		}
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		u.Address = strings.TrimSpace(*p.Address)
	}
	if p.City != nil {
		u.City = strings.TrimSpace(*p.City)
	}
	if p.Avatar != nil {
		u.Avatar = strings.TrimSpace(*p.Avatar)
	}
	return nil
}

// DisplayName falls back from the name to the email local part to a short id handle.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	id := u.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "User_" + id
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyID
	}
	if err := u.Rename(u.Name); err != nil {
		return err
	}
	return u.ChangeEmail(u.Email)
}
