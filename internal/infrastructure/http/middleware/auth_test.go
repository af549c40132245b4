package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

type fakeIssuer struct {
	claims map[string]*ports.AccessClaims
}

func (f *fakeIssuer) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (f *fakeIssuer) ValidateAccessToken(token string) (*ports.AccessClaims, error) {
	c, ok := f.claims[token]
	if !ok {
		return nil, domerrors.ErrInvalidToken
	}
	return c, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Count(ctx context.Context) (int64, error)                        { return 0, nil }
func (f *fakeUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error { return nil }
func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, id string) error             { return nil }

var _ ports.UserRepository = (*fakeUserRepo)(nil)

func testStack(role domain.Role, requireRole bool) (http.Handler, *domain.User) {
	user := &domain.User{ID: "u1", Role: role, IsActive: true}
	issuer := &fakeIssuer{claims: map[string]*ports.AccessClaims{
		"good": {UserID: "u1", Role: role},
	}}
	repo := &fakeUserRepo{users: map[string]*domain.User{"u1": user}}

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if requireRole {
		h = RequireRole(domain.RoleAdmin)(h)
	}
	h = NewAuthValidator(issuer, repo).Handler(h)
	return h, user
}

func TestAuthValidatorMissingHeader(t *testing.T) {
	h, _ := testStack(domain.RoleUser, false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidatorBadToken(t *testing.T) {
	h, _ := testStack(domain.RoleUser, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidatorLoadsUser(t *testing.T) {
	issuer := &fakeIssuer{claims: map[string]*ports.AccessClaims{
		"good": {UserID: "u1", Role: domain.RoleUser},
	}}
	repo := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "dev@example.com", Role: domain.RoleUser, IsActive: true},
	}}
	var seen *domain.User
	h := NewAuthValidator(issuer, repo).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "dev@example.com", seen.Email)
}

func TestAuthValidatorInactiveUser(t *testing.T) {
	issuer := &fakeIssuer{claims: map[string]*ports.AccessClaims{
		"good": {UserID: "u1", Role: domain.RoleUser},
	}}
	repo := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Role: domain.RoleUser, IsActive: false},
	}}
	h := NewAuthValidator(issuer, repo).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForbidsNonAdmin(t *testing.T) {
	h, _ := testStack(domain.RoleUser, true)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	h, _ := testStack(domain.RoleAdmin, true)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
