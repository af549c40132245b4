// Package oauth implements the outbound OAuth flow: the compiled-in provider
// table, authorization URL construction, code exchange, and per-provider
// profile normalization.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/confhub/confhub/internal/application/ports"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

// providerTimeout bounds every outbound call to an identity provider. The
// flow fails closed when the provider hangs.
const providerTimeout = 10 * time.Second

// Gateway implements ports.ProviderGateway on golang.org/x/oauth2.
type Gateway struct {
	providers       Providers
	callbackBaseURL string
	client          *http.Client
}

func NewGateway(providers Providers, callbackBaseURL string) *Gateway {
	return &Gateway{
		providers:       providers,
		callbackBaseURL: callbackBaseURL,
		client:          &http.Client{Timeout: providerTimeout},
	}
}

func (g *Gateway) Enabled() []ports.ProviderInfo {
	var out []ports.ProviderInfo
	for _, p := range g.providers.Enabled() {
		out = append(out, ports.ProviderInfo{Name: p.Name, DisplayName: p.DisplayName, Icon: p.Icon})
	}
	return out
}

func (g *Gateway) Known(name string) bool {
	_, ok := g.providers.Get(name)
	return ok
}

func (g *Gateway) IsEnabled(name string) bool {
	p, ok := g.providers.Get(name)
	return ok && p.Enabled()
}

func (g *Gateway) RequiresPKCE(name string) bool {
	p, ok := g.providers.Get(name)
	return ok && p.UsePKCE
}

func (g *Gateway) NewCodeVerifier() string {
	return oauth2.GenerateVerifier()
}

func (g *Gateway) config(p Provider) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  g.callbackBaseURL + "/api/v1/auth/callback",
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
}

func (g *Gateway) AuthCodeURL(name, state, codeVerifier string) (string, error) {
	p, ok := g.providers.Get(name)
	if !ok {
		return "", domerrors.ErrUnknownProvider
	}
	if !p.Enabled() {
		return "", domerrors.ErrProviderDisabled
	}
	var opts []oauth2.AuthCodeOption
	for k, v := range p.ExtraParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if p.UsePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(codeVerifier))
	}
	return g.config(p).AuthCodeURL(state, opts...), nil
}

// FetchProfile exchanges the authorization code and normalizes the provider's
// userinfo response.
func (g *Gateway) FetchProfile(ctx context.Context, name, code, codeVerifier string) (*ports.Profile, error) {
	p, ok := g.providers.Get(name)
	if !ok {
		return nil, domerrors.ErrUnknownProvider
	}
	if !p.Enabled() {
		return nil, domerrors.ErrProviderDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	var opts []oauth2.AuthCodeOption
	if p.UsePKCE {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}
	token, err := g.config(p).Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("exchange code with %s: %w", name, err)
	}

	if p.UserInfoURL == "" {
		// Apple carries the profile in the id_token; there is no userinfo
		// endpoint.
		return parseAppleIDToken(token)
	}

	doc, err := g.fetchUserInfo(ctx, p, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return parseProfile(name, doc)
}

func (g *Gateway) fetchUserInfo(ctx context.Context, p Provider, accessToken string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", p.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s profile: status %d", p.Name, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", p.Name, err)
	}
	return doc, nil
}

// parseAppleIDToken reads sub/email from the id_token. The token arrived over
// TLS directly from the token endpoint, so the signature is not re-verified.
func parseAppleIDToken(token *oauth2.Token) (*ports.Profile, error) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return nil, fmt.Errorf("apple token response: missing id_token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("apple id_token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("apple id_token: missing sub")
	}
	email, _ := claims["email"].(string)
	return &ports.Profile{ProviderID: sub, Email: email, Name: email}, nil
}

var _ ports.ProviderGateway = (*Gateway)(nil)
