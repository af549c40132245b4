package auth

import (
	"context"
	"time"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A revoked or expired token never refreshes again.
type Refresh struct {
	issuer        ports.TokenIssuer
	tokens        ports.TokenStore
	users         ports.UserRepository
	refreshExpiry int64
}

func NewRefresh(issuer ports.TokenIssuer, tokens ports.TokenStore, users ports.UserRepository, refreshExpiry int64) *Refresh {
	if refreshExpiry <= 0 {
		refreshExpiry = DefaultRefreshTokenExpiry
	}
	return &Refresh{issuer: issuer, tokens: tokens, users: users, refreshExpiry: refreshExpiry}
}

func (uc *Refresh) Execute(ctx context.Context, rawToken string) (*domain.LoginResponse, error) {
	if rawToken == "" {
		return nil, domerrors.ErrInvalidToken
	}
	token, err := uc.findValid(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domerrors.ErrInvalidToken
	}
	// Rotation-on-use: revoke before issuing so the old token can never be
	// replayed, even if issuance fails afterwards.
	if err := uc.tokens.Revoke(ctx, token.ID); err != nil {
		return nil, err
	}
	return issueSession(ctx, uc.issuer, uc.tokens, user, uc.refreshExpiry)
}

func (uc *Refresh) findValid(ctx context.Context, rawToken string) (*domain.RefreshToken, error) {
	token, err := findByRawToken(ctx, uc.tokens, rawToken)
	if err != nil {
		return nil, err
	}
	if token == nil || token.IsRevoked || time.Now().After(token.ExpiresAt) {
		return nil, domerrors.ErrInvalidToken
	}
	return token, nil
}
