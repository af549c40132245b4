package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

const (
	insertRefreshTokenSQL = `
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, is_revoked, created_at)
VALUES ($1, $2, $3, $4, FALSE, $5)`
	// Rows are never hard-deleted; revocation and expiry filter them out here.
	listActiveRefreshTokensSQL = `
SELECT id, user_id, token_hash, expires_at, is_revoked, created_at
FROM refresh_tokens WHERE NOT is_revoked AND expires_at > NOW()
ORDER BY created_at DESC`
	revokeRefreshTokenSQL = `UPDATE refresh_tokens SET is_revoked = TRUE WHERE id = $1`
)

type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (s *TokenStore) Store(ctx context.Context, token *domain.RefreshToken) error {
	_, err := s.pool.Exec(ctx, insertRefreshTokenSQL,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	return err
}

func (s *TokenStore) ListActive(ctx context.Context) ([]*domain.RefreshToken, error) {
	rows, err := s.pool.Query(ctx, listActiveRefreshTokensSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *TokenStore) Revoke(ctx context.Context, tokenID string) error {
	_, err := s.pool.Exec(ctx, revokeRefreshTokenSQL, tokenID)
	return err
}

var _ ports.TokenStore = (*TokenStore)(nil)
