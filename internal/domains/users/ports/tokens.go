package ports

import "github.com/Apurer/go-gin-storefront/internal/domains/users/domain"

// TokenIssuer mints the bearer tokens handed out at sign-in.
type TokenIssuer interface {
	IssueAccess(user *domain.User) (string, error)
	IssueRefresh(user *domain.User) (string, error)
	// VerifyRefresh returns the user id a refresh token was issued to.
	VerifyRefresh(token string) (string, error)
}
