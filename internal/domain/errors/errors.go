// Package errors defines sentinel errors for handlers to map to HTTP status.
package errors

import "errors"

var (
	ErrInvalidID        = errors.New("invalid identifier")
	ErrInvalidRole      = errors.New("invalid role")
	ErrNotFound         = errors.New("resource not found")
	ErrNameConflict     = errors.New("name already in use")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrInvalidState     = errors.New("invalid or expired oauth state")
	ErrUnknownProvider  = errors.New("unknown oauth provider")
	ErrProviderDisabled = errors.New("oauth provider not configured")
	ErrInvalidReturnURL = errors.New("return url not allowed")
	ErrForbidden        = errors.New("insufficient role")
)
