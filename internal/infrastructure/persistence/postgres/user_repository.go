package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

const (
	insertUserSQL = `
INSERT INTO users (id, email, name, avatar_url, role, provider, provider_id, created_at, last_login_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	selectUserByIDSQL = `
SELECT id, email, name, avatar_url, role, provider, provider_id, created_at, last_login_at, is_active
FROM users WHERE id = $1`
	selectUserByProviderSQL = `
SELECT id, email, name, avatar_url, role, provider, provider_id, created_at, last_login_at, is_active
FROM users WHERE provider = $1 AND provider_id = $2`
	countUsersSQL      = `SELECT COUNT(*) FROM users`
	updateUserRoleSQL  = `UPDATE users SET role = $2 WHERE id = $1`
	touchLastLoginSQL  = `UPDATE users SET last_login_at = NOW() WHERE id = $1`
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		user.ID, user.Email, user.Name, nullable(user.AvatarURL), string(user.Role),
		user.Provider, user.ProviderID, user.CreatedAt, user.LastLoginAt, user.IsActive)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, selectUserByIDSQL, userID)
}

func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return r.getOne(ctx, selectUserByProviderSQL, provider, providerID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, countUsersSQL).Scan(&n)
	return n, err
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.pool.Exec(ctx, updateUserRoleSQL, userID, string(role))
	return err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, touchLastLoginSQL, userID)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var avatar *string
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &avatar, &role,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.LastLoginAt, &user.IsActive); err != nil {
		return nil, err
	}
	if avatar != nil {
		user.AvatarURL = *avatar
	}
	user.Role = domain.Role(role)
	return &user, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
