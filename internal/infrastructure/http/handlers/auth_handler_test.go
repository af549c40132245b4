package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confhub/confhub/internal/application/auth"
	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/application/users"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

// fakeGateway answers provider questions without network access.
type fakeGateway struct {
	profile  *ports.Profile
	fetchErr error
}

func (f *fakeGateway) Enabled() []ports.ProviderInfo {
	return []ports.ProviderInfo{{Name: "github", DisplayName: "GitHub", Icon: "github"}}
}
func (f *fakeGateway) Known(name string) bool        { return name == "github" || name == "google" }
func (f *fakeGateway) IsEnabled(name string) bool    { return name == "github" }
func (f *fakeGateway) RequiresPKCE(name string) bool { return false }
func (f *fakeGateway) NewCodeVerifier() string       { return "verifier" }
func (f *fakeGateway) AuthCodeURL(name, state, codeVerifier string) (string, error) {
	return "https://provider.example.com/authorize?state=" + state, nil
}
func (f *fakeGateway) FetchProfile(ctx context.Context, name, code, codeVerifier string) (*ports.Profile, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.profile, nil
}

var _ ports.ProviderGateway = (*fakeGateway)(nil)

type memStateStore struct {
	states map[string]*domain.OAuthState
}

func (m *memStateStore) Store(ctx context.Context, state *domain.OAuthState) error {
	m.states[state.ID] = state
	return nil
}

func (m *memStateStore) Consume(ctx context.Context, stateID string) (*domain.OAuthState, error) {
	state, ok := m.states[stateID]
	if !ok || time.Now().After(state.ExpiresAt) {
		return nil, domerrors.ErrInvalidState
	}
	delete(m.states, stateID)
	return state, nil
}

type memTokenStore struct {
	tokens map[string]*domain.RefreshToken
}

func (m *memTokenStore) Store(ctx context.Context, token *domain.RefreshToken) error {
	c := *token
	m.tokens[token.ID] = &c
	return nil
}

func (m *memTokenStore) ListActive(ctx context.Context) ([]*domain.RefreshToken, error) {
	out := make([]*domain.RefreshToken, 0)
	for _, t := range m.tokens {
		if !t.IsRevoked && time.Now().Before(t.ExpiresAt) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTokenStore) Revoke(ctx context.Context, tokenID string) error {
	if t, ok := m.tokens[tokenID]; ok {
		t.IsRevoked = true
	}
	return nil
}

type memUserRepo struct {
	users map[string]*domain.User
}

func (m *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *memUserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *memUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *memUserRepo) TouchLastLogin(ctx context.Context, id string) error { return nil }

var _ ports.UserRepository = (*memUserRepo)(nil)

// staticIssuer issues predictable tokens keyed by user id.
type staticIssuer struct{}

func (staticIssuer) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	return "access-" + user.ID, time.Now().Add(time.Hour), nil
}

func (staticIssuer) ValidateAccessToken(token string) (*ports.AccessClaims, error) {
	return nil, domerrors.ErrInvalidToken
}

// fixtureReturnOrigins is the redirect allowlist the fixtures run with.
var fixtureReturnOrigins = []string{"https://app.example.com"}

type authFixture struct {
	router   http.Handler
	states   *memStateStore
	userRepo *memUserRepo
}

func newAuthFixture(gateway ports.ProviderGateway) *authFixture {
	states := &memStateStore{states: make(map[string]*domain.OAuthState)}
	tokens := &memTokenStore{tokens: make(map[string]*domain.RefreshToken)}
	userRepo := &memUserRepo{users: make(map[string]*domain.User)}
	usersSvc := users.NewService(userRepo)
	issuer := staticIssuer{}

	begin := auth.NewBeginOAuth(gateway, states, 600, fixtureReturnOrigins)
	complete := auth.NewCompleteOAuth(gateway, states, usersSvc, issuer, tokens, 0, zerolog.Nop())
	refresh := auth.NewRefresh(issuer, tokens, userRepo, 0)
	logout := auth.NewLogout(tokens)
	h := NewAuthHandler(gateway, begin, complete, refresh, logout, usersSvc, nil, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/auth/providers", h.Providers)
	r.Get("/auth/authorize/{provider}", h.Authorize)
	r.Get("/auth/callback", h.Callback)
	r.Post("/auth/callback", h.Callback)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.Put("/users/{id}/role", h.UpdateRole)
	return &authFixture{router: r, states: states, userRepo: userRepo}
}

func TestAuthProviders(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/providers", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Providers []ProviderResponse `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "github", body.Providers[0].Name)
	assert.Equal(t, "GitHub", body.Providers[0].DisplayName)
}

func TestAuthAuthorizeRedirects(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/github?returnUrl=/app", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://provider.example.com/authorize?state=")
	assert.Len(t, fix.states.states, 1)
}

func TestAuthAuthorizeForeignReturnURLRejected(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/github?returnUrl="+url.QueryEscape("https://evil.example/phish"), nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fix.states.states, "hostile target must never reach the state table")
}

func TestAuthCallbackRedirectsOnlyToAllowlistedOrigin(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{profile: &ports.Profile{ProviderID: "42", Email: "dev@example.com", Name: "Dev"}})

	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/github?returnUrl="+url.QueryEscape("https://app.example.com/settings"), nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, fix.states.states, 1)
	var stateID string
	for id := range fix.states.states {
		stateID = id
	}

	cb := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+stateID, nil)
	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, cb)

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "https://app.example.com/settings#token="), loc)
	assert.Contains(t, loc, "&refresh_token=")
}

func TestAuthAuthorizeUnknownProvider(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/gitlab", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthAuthorizeDisabledProvider(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/google", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func beginLogin(t *testing.T, fix *authFixture) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/authorize/github", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, fix.states.states, 1)
	for id := range fix.states.states {
		return id
	}
	return ""
}

func TestAuthCallbackHappyPath(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{profile: &ports.Profile{
		ProviderID: "42", Email: "dev@example.com", Name: "Dev",
	}})
	stateID := beginLogin(t, fix)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+stateID, nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body LoginResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.RefreshToken)
	assert.Equal(t, "dev@example.com", body.User.Email)
	// First user in the system is promoted to Admin.
	assert.Equal(t, "Admin", body.User.Role)
}

func TestAuthCallbackStateReplayFails(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{profile: &ports.Profile{ProviderID: "42", Email: "dev@example.com", Name: "Dev"}})
	stateID := beginLogin(t, fix)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+stateID, nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	replay := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+stateID, nil)
	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, replay)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication failed", body["message"])
}

func TestAuthCallbackMissingState(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthCallbackFormPost(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{profile: &ports.Profile{ProviderID: "7", Email: "a@b.c", Name: "A"}})
	stateID := beginLogin(t, fix)

	form := "code=abc&state=" + stateID
	req := httptest.NewRequest(http.MethodPost, "/auth/callback", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRefreshRotation(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{profile: &ports.Profile{ProviderID: "42", Email: "dev@example.com", Name: "Dev"}})
	stateID := beginLogin(t, fix)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+stateID, nil)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	payload, _ := json.Marshal(map[string]string{"refresh_token": login.RefreshToken})
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBuffer(payload))
	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed LoginResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked; a second refresh with it fails.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBuffer(payload))
	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthLogoutIdempotent(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	payload := bytes.NewBufferString(`{"refresh_token":"unknown"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", payload)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateRoleMalformedIDRejected(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	payload := bytes.NewBufferString(`{"role":"Admin"}`)
	req := httptest.NewRequest(http.MethodPut, "/users/not-a-ulid/role", payload)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidID, resp["code"])
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	fix := newAuthFixture(&fakeGateway{})

	payload := bytes.NewBufferString(`{"role":"Admin"}`)
	req := httptest.NewRequest(http.MethodPut, "/users/01HZYJ5A8PZM7Q4D9T2F6K3W8B/role", payload)
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
