package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confhub/confhub/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:         "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Email:      "ops@example.com",
		Name:       "Ops",
		Role:       domain.RoleAdmin,
		Provider:   "github",
		ProviderID: "12345",
		IsActive:   true,
	}
}

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "confhub", "confhub", 3600)

	token, expiresAt, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", claims.UserID)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "github", claims.Provider)
	assert.Equal(t, "12345", claims.ProviderID)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "confhub", "confhub", 3600)
	other := NewTokenIssuer([]byte("other"), "confhub", "confhub", 3600)

	token, _, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuerAudience(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "confhub", "confhub", 3600)
	token, _, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	wrongIssuer := NewTokenIssuer([]byte("secret"), "someone-else", "confhub", 3600)
	_, err = wrongIssuer.ValidateAccessToken(token)
	assert.Error(t, err)

	wrongAudience := NewTokenIssuer([]byte("secret"), "confhub", "someone-else", 3600)
	_, err = wrongAudience.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "confhub", "confhub", -60)
	token, _, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = issuer.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "confhub", "confhub", 3600)
	_, err := issuer.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}
