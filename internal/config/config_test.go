package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "confhub", cfg.JWT.Issuer)
	assert.Equal(t, "confhub", cfg.JWT.Audience)
	assert.Equal(t, int64(3600), cfg.JWT.AccessExpiry)
	assert.Equal(t, int64(30*24*3600), cfg.JWT.RefreshExpiry)
	assert.Equal(t, int64(600), cfg.OAuth.StateExpiry)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadProviderCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OAUTH_GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("OAUTH_GITHUB_CLIENT_SECRET", "gh-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gh-id", cfg.OAuth.Providers["github"].ClientID)
	assert.Equal(t, "gh-secret", cfg.OAuth.Providers["github"].ClientSecret)
	assert.Empty(t, cfg.OAuth.Providers["google"].ClientID)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}
