package ports

import (
	"context"

	"github.com/confhub/confhub/internal/domain"
)

// ApplicationRepository defines persistence for applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	List(ctx context.Context) ([]*domain.Application, error)
	Update(ctx context.Context, app *domain.Application) error
	Delete(ctx context.Context, id string) error
	// DeleteMany removes all applications in ids, returning how many existed.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// ConfigurationListOptions narrows configuration listings. Summary drops the
// config payload from results; Search filters by name substring.
type ConfigurationListOptions struct {
	Summary bool
	Search  string
}

// ConfigurationRepository defines persistence for configurations, always
// scoped to an application.
type ConfigurationRepository interface {
	Create(ctx context.Context, cfg *domain.Configuration) error
	GetByID(ctx context.Context, applicationID, id string) (*domain.Configuration, error)
	List(ctx context.Context, applicationID string, opts ConfigurationListOptions) ([]*domain.Configuration, error)
	Update(ctx context.Context, cfg *domain.Configuration) error
	Delete(ctx context.Context, applicationID, id string) error
}

// UserRepository defines persistence for users keyed by (provider, provider_id).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	TouchLastLogin(ctx context.Context, id string) error
}

// TokenStore defines storage for refresh tokens. Tokens are matched by bcrypt
// comparison against the candidate set from ListActive, so rows are never
// looked up by hash directly.
type TokenStore interface {
	Store(ctx context.Context, token *domain.RefreshToken) error
	// ListActive returns unrevoked, unexpired tokens.
	ListActive(ctx context.Context) ([]*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenID string) error
}

// StateStore defines storage for single-use OAuth CSRF states.
type StateStore interface {
	Store(ctx context.Context, state *domain.OAuthState) error
	// Consume atomically deletes and returns the unexpired state row, or
	// errors.ErrInvalidState when absent, expired, or already consumed.
	Consume(ctx context.Context, id string) (*domain.OAuthState, error)
}

// AuditStore appends audit entries.
type AuditStore interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}
