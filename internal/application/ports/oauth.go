package ports

import "context"

// Profile is the normalized identity fetched from an OAuth provider.
type Profile struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

// ProviderInfo is the public description of a configured provider.
type ProviderInfo struct {
	Name        string
	DisplayName string
	Icon        string
}

// ProviderGateway wraps the outbound half of the OAuth flow: building
// authorization URLs and turning an authorization code into a normalized
// profile. Implementations enforce a timeout on all provider calls.
type ProviderGateway interface {
	// Enabled lists providers with credentials configured.
	Enabled() []ProviderInfo
	// Known reports whether the provider exists in the compiled-in table.
	Known(name string) bool
	// IsEnabled reports whether the provider has credentials.
	IsEnabled(name string) bool
	// RequiresPKCE reports whether the provider needs a code verifier.
	RequiresPKCE(name string) bool
	// NewCodeVerifier returns a fresh PKCE verifier.
	NewCodeVerifier() string
	// AuthCodeURL builds the provider authorization URL embedding state and,
	// when the provider requires PKCE, the S256 challenge for codeVerifier.
	AuthCodeURL(name, state, codeVerifier string) (string, error)
	// FetchProfile exchanges the code and fetches the normalized profile.
	FetchProfile(ctx context.Context, name, code, codeVerifier string) (*Profile, error)
}
