package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/application/users"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

// CompleteOAuth handles the provider callback: state consumption, code
// exchange, profile normalization, user upsert, and session issuance.
// Every failure mode collapses to an error the handler maps to 401; nothing
// about the internal cause is leaked to the client.
type CompleteOAuth struct {
	gateway       ports.ProviderGateway
	states        ports.StateStore
	users         *users.Service
	issuer        ports.TokenIssuer
	tokens        ports.TokenStore
	refreshExpiry int64
	log           zerolog.Logger
}

func NewCompleteOAuth(gateway ports.ProviderGateway, states ports.StateStore, usersSvc *users.Service, issuer ports.TokenIssuer, tokens ports.TokenStore, refreshExpiry int64, log zerolog.Logger) *CompleteOAuth {
	if refreshExpiry <= 0 {
		refreshExpiry = DefaultRefreshTokenExpiry
	}
	return &CompleteOAuth{
		gateway:       gateway,
		states:        states,
		users:         usersSvc,
		issuer:        issuer,
		tokens:        tokens,
		refreshExpiry: refreshExpiry,
		log:           log,
	}
}

// ReturnURL is exposed alongside the session so the handler can redirect back
// to where the login started.
type CompleteOAuthResult struct {
	Session   *domain.LoginResponse
	ReturnURL string
}

// Execute validates the state, exchanges the code, and logs the user in. The
// state is consumed exactly once; a replay or an expired state fails closed.
func (uc *CompleteOAuth) Execute(ctx context.Context, code, stateID string) (*CompleteOAuthResult, error) {
	if code == "" || stateID == "" {
		return nil, domerrors.ErrInvalidState
	}
	state, err := uc.states.Consume(ctx, stateID)
	if err != nil {
		uc.log.Warn().Err(err).Msg("oauth state rejected")
		return nil, domerrors.ErrInvalidState
	}

	profile, err := uc.gateway.FetchProfile(ctx, state.Provider, code, state.CodeVerifier)
	if err != nil {
		uc.log.Warn().Err(err).Str("provider", state.Provider).Msg("oauth exchange failed")
		return nil, domerrors.ErrInvalidToken
	}

	user, err := uc.users.Upsert(ctx, state.Provider, profile)
	if err != nil {
		uc.log.Error().Err(err).Str("provider", state.Provider).Msg("user upsert failed")
		return nil, err
	}
	if !user.IsActive {
		return nil, domerrors.ErrInvalidToken
	}

	session, err := issueSession(ctx, uc.issuer, uc.tokens, user, uc.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &CompleteOAuthResult{Session: session, ReturnURL: state.ReturnURL}, nil
}
