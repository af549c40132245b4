package ports

import (
	"time"

	"github.com/confhub/confhub/internal/domain"
)

// AccessClaims is the validated content of an access token.
type AccessClaims struct {
	UserID     string
	Email      string
	Name       string
	Role       domain.Role
	Provider   string
	ProviderID string
}

// TokenIssuer signs and validates JWT access tokens (HS256).
type TokenIssuer interface {
	IssueAccessToken(user *domain.User) (token string, expiresAt time.Time, err error)
	ValidateAccessToken(token string) (*AccessClaims, error)
}
