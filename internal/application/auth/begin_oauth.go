package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
	"github.com/confhub/confhub/internal/domain/id"
)

// DefaultStateExpiry is the CSRF state lifetime in seconds.
const DefaultStateExpiry int64 = 600

// BeginOAuth builds the provider authorization URL, persisting a single-use
// CSRF state first.
type BeginOAuth struct {
	gateway       ports.ProviderGateway
	states        ports.StateStore
	stateExpiry   int64
	returnOrigins []string
}

// NewBeginOAuth wires the use case. returnOrigins is the allowlist of
// absolute origins a post-login redirect may target; relative paths are
// always allowed.
func NewBeginOAuth(gateway ports.ProviderGateway, states ports.StateStore, stateExpiry int64, returnOrigins []string) *BeginOAuth {
	if stateExpiry <= 0 {
		stateExpiry = DefaultStateExpiry
	}
	return &BeginOAuth{gateway: gateway, states: states, stateExpiry: stateExpiry, returnOrigins: returnOrigins}
}

// allowReturnURL reports whether returnURL is a safe redirect target. The
// callback appends both tokens to this URL in a fragment, so anything but a
// relative path or an allowlisted origin would hand a victim's tokens to an
// arbitrary site. A "*" entry in the allowlist covers CORS, not redirects,
// and is ignored here.
func (uc *BeginOAuth) allowReturnURL(returnURL string) bool {
	if returnURL == "" {
		return true
	}
	u, err := url.Parse(returnURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(returnURL, "/") &&
			!strings.HasPrefix(returnURL, "//") &&
			!strings.HasPrefix(returnURL, "/\\")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range uc.returnOrigins {
		if allowed == "*" {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// Execute returns the authorization URL for the provider, or
// ErrUnknownProvider / ErrProviderDisabled / ErrInvalidReturnURL.
func (uc *BeginOAuth) Execute(ctx context.Context, provider, returnURL string) (string, error) {
	if !uc.gateway.Known(provider) {
		return "", domerrors.ErrUnknownProvider
	}
	if !uc.gateway.IsEnabled(provider) {
		return "", domerrors.ErrProviderDisabled
	}
	if !uc.allowReturnURL(returnURL) {
		return "", domerrors.ErrInvalidReturnURL
	}
	state := &domain.OAuthState{
		ID:        id.New(),
		Provider:  provider,
		ReturnURL: returnURL,
		ExpiresAt: time.Now().Add(time.Duration(uc.stateExpiry) * time.Second),
		CreatedAt: time.Now(),
	}
	if uc.gateway.RequiresPKCE(provider) {
		state.CodeVerifier = uc.gateway.NewCodeVerifier()
	}
	if err := uc.states.Store(ctx, state); err != nil {
		return "", err
	}
	return uc.gateway.AuthCodeURL(provider, state.ID, state.CodeVerifier)
}
