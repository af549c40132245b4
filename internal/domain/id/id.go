// Package id generates and validates the ULID identifiers used for every
// persisted record.
package id

import (
	"regexp"

	"github.com/oklog/ulid/v2"
)

// Crockford base32, 26 chars, no I/L/O/U.
var pattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// New returns a fresh ULID string (48-bit timestamp + 80 bits of entropy).
func New() string {
	return ulid.Make().String()
}

// Valid reports whether s is a well-formed ULID.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
