package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

// TokenIssuer implements ports.TokenIssuer with HS256.
type TokenIssuer struct {
	secret       []byte
	issuer       string
	audience     string
	accessExpiry time.Duration
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}

func NewTokenIssuer(secret []byte, issuer, audience string, accessExpirySeconds int64) *TokenIssuer {
	return &TokenIssuer{
		secret:       secret,
		issuer:       issuer,
		audience:     audience,
		accessExpiry: time.Duration(accessExpirySeconds) * time.Second,
	}
}

// IssueAccessToken signs a JWT for the user with a fixed expiry.
func (t *TokenIssuer) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.accessExpiry)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		Provider:   user.Provider,
		ProviderID: user.ProviderID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks signature, issuer, audience, and expiry with
// zero leeway and returns the claims.
func (t *TokenIssuer) ValidateAccessToken(tokenString string) (*ports.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithAudience(t.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return &ports.AccessClaims{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       domain.Role(claims.Role),
		Provider:   claims.Provider,
		ProviderID: claims.ProviderID,
	}, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
