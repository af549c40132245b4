package domain

import "time"

// RefreshToken is the stored form of an opaque refresh token. Only the bcrypt
// hash is persisted; rotation and logout set is_revoked, rows are never
// hard-deleted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}

// OAuthState is the single-use CSRF token binding an authorization redirect to
// its callback. Consumed (deleted) exactly once; expiry is checked at read time.
type OAuthState struct {
	ID           string
	Provider     string
	ReturnURL    string
	CodeVerifier string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// LoginResponse is the result of a successful OAuth callback or token refresh.
type LoginResponse struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	User         *User
}
