package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

const (
	insertOAuthStateSQL = `
INSERT INTO oauth_states (id, provider, return_url, code_verifier, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	// Delete-returning makes consumption atomic: concurrent callbacks with
	// the same state can only win once.
	consumeOAuthStateSQL = `
DELETE FROM oauth_states WHERE id = $1 AND expires_at > NOW()
RETURNING id, provider, return_url, code_verifier, expires_at, created_at`
)

type StateStore struct {
	pool *pgxpool.Pool
}

func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

func (s *StateStore) Store(ctx context.Context, state *domain.OAuthState) error {
	_, err := s.pool.Exec(ctx, insertOAuthStateSQL,
		state.ID, state.Provider, nullable(state.ReturnURL), nullable(state.CodeVerifier),
		state.ExpiresAt, state.CreatedAt)
	return err
}

func (s *StateStore) Consume(ctx context.Context, stateID string) (*domain.OAuthState, error) {
	var state domain.OAuthState
	var returnURL, verifier *string
	err := s.pool.QueryRow(ctx, consumeOAuthStateSQL, stateID).Scan(
		&state.ID, &state.Provider, &returnURL, &verifier, &state.ExpiresAt, &state.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domerrors.ErrInvalidState
		}
		return nil, err
	}
	if returnURL != nil {
		state.ReturnURL = *returnURL
	}
	if verifier != nil {
		state.CodeVerifier = *verifier
	}
	return &state, nil
}

var _ ports.StateStore = (*StateStore)(nil)
