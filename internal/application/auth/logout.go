package auth

import (
	"context"

	"github.com/confhub/confhub/internal/application/ports"
)

// Logout revokes the presented refresh token. Idempotent: an unknown or
// already-revoked token is a no-op.
type Logout struct {
	tokens ports.TokenStore
}

func NewLogout(tokens ports.TokenStore) *Logout {
	return &Logout{tokens: tokens}
}

// Execute reports whether a token was actually revoked.
func (uc *Logout) Execute(ctx context.Context, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}
	token, err := findByRawToken(ctx, uc.tokens, rawToken)
	if err != nil {
		return false, err
	}
	if token == nil {
		return false, nil
	}
	if err := uc.tokens.Revoke(ctx, token.ID); err != nil {
		return false, err
	}
	return true, nil
}
