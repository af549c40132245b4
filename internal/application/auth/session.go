// Package auth holds the login, refresh, and logout use cases.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	"github.com/confhub/confhub/internal/domain/id"
)

// DefaultRefreshTokenExpiry is 30 days in seconds.
const DefaultRefreshTokenExpiry int64 = 30 * 24 * 3600

// issueSession creates the access token plus an opaque refresh token, storing
// only the bcrypt hash of the latter.
func issueSession(ctx context.Context, issuer ports.TokenIssuer, tokens ports.TokenStore, user *domain.User, refreshExpiry int64) (*domain.LoginResponse, error) {
	accessToken, expiresAt, err := issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	// The refresh token is a ULID, not a JWT: random, sortable, opaque.
	refreshRaw := id.New()
	hash, err := bcrypt.GenerateFromPassword([]byte(refreshRaw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := tokens.Store(ctx, &domain.RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: string(hash),
		ExpiresAt: now.Add(time.Duration(refreshExpiry) * time.Second),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return &domain.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshRaw,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// findByRawToken bcrypt-matches the raw token against the active set.
// Returns nil when no active row matches.
func findByRawToken(ctx context.Context, tokens ports.TokenStore, raw string) (*domain.RefreshToken, error) {
	active, err := tokens.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range active {
		if bcrypt.CompareHashAndPassword([]byte(t.TokenHash), []byte(raw)) == nil {
			return t, nil
		}
	}
	return nil, nil
}
