package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-storefront/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/users/ports"
)

// Service exposes user directory and account use cases.
type Service struct {
	repo         ports.Repository
	tokens       ports.TokenIssuer
	newID        func() string
	passwordCost int
}

// Option customises the service.
type Option func(*Service)

// WithTokenIssuer enables Login and RefreshToken.
func WithTokenIssuer(tokens ports.TokenIssuer) Option {
	return func(s *Service) {
		s.tokens = tokens
	}
}

// WithIDGenerator overrides identifier generation for new accounts.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithPasswordCost sets the bcrypt cost; out-of-range values fall back to bcrypt.DefaultCost.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, newID: uuid.NewString, passwordCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register opens an email and password account. Emails are unique among such accounts.
func (s *Service) Register(ctx context.Context, input types.RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, mapError(domain.ErrEmailRequired)
	}
	if err := domain.CheckNewPassword(input.Password, input.ConfirmPassword); err != nil {
		return nil, mapError(err)
	}
	user, err := domain.NewUser(s.newID(), input.Name, input.Email)
	if err != nil {
		return nil, mapError(err)
	}
	user.Phone = strings.TrimSpace(input.Phone)
	if user.PasswordHash, err = s.hashPassword(input.Password); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// Login checks email and password and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, input types.LoginInput) (*types.Session, error) {
	if s.tokens == nil {
		return nil, ErrTokensUnavailable
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &types.Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshToken exchanges a refresh token for a new access token built from the stored profile,
// so role changes apply on the next refresh.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*types.Session, error) {
	if s.tokens == nil {
		return nil, ErrTokensUnavailable
	}
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &types.Session{User: user, AccessToken: access}, nil
}

// ChangePassword replaces the password of an account that already has one.
func (s *Service) ChangePassword(ctx context.Context, input types.ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(input.UserID))
	if err != nil {
		return err
	}
	if !user.HasPassword() || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)) != nil {
		return mapError(ErrIncorrectPassword)
	}
	if err := domain.CheckNewPassword(input.NewPassword, input.ConfirmPassword); err != nil {
		return mapError(err)
	}
	if user.PasswordHash, err = s.hashPassword(input.NewPassword); err != nil {
		return err
	}
	_, err = s.repo.Upsert(ctx, user)
	return mapError(err)
}

// Sync creates the profile on first sight and refreshes identity fields carried by
// the token. Contact fields edited through UpdateProfile are kept, and a stored name
// wins over an empty claim.
func (s *Service) Sync(ctx context.Context, input types.SyncInput) (*domain.User, error) {
	existing, err := s.repo.GetByID(ctx, strings.TrimSpace(input.UserID))
	switch {
	case errors.Is(err, ports.ErrNotFound):
		user, err := domain.NewUser(input.UserID, input.Name, input.Email)
		if err != nil {
			return nil, mapError(err)
		}
		user.Avatar = strings.TrimSpace(input.Avatar)
		user.IsAdmin = input.IsAdmin
		return s.save(ctx, user)
	case err != nil:
		return nil, err
	}

	if strings.TrimSpace(input.Name) != "" {
		if err := existing.Rename(input.Name); err != nil {
			return nil, mapError(err)
		}
	}
	if strings.TrimSpace(input.Email) != "" {
		if err := existing.ChangeEmail(input.Email); err != nil {
			return nil, mapError(err)
		}
	}
	if avatar := strings.TrimSpace(input.Avatar); avatar != "" {
		existing.Avatar = avatar
	}
	existing.IsAdmin = input.IsAdmin
	return s.save(ctx, existing)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) UpdateProfile(ctx context.Context, input types.UpdateProfileInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(input.UserID))
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(domain.Profile{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
		City:    input.City,
		Avatar:  input.Avatar,
	}); err != nil {
		return nil, mapError(err)
	}
	return s.save(ctx, user)
}

func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	return user.DisplayName(), nil
}

func (s *Service) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := s.repo.Upsert(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var _ ports.Service = (*Service)(nil)
