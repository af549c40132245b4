package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	s := New()
	require.Len(t, s, 26)
	assert.True(t, Valid(s), "generated ULID must match the Crockford alphabet: %s", s)
}

func TestNewIsSortable(t *testing.T) {
	earlier := New()
	time.Sleep(2 * time.Millisecond)
	later := New()
	assert.GreaterOrEqual(t, later, earlier, "later ULID must sort after earlier one")
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		s := New()
		require.False(t, seen[s], "duplicate ULID generated: %s", s)
		seen[s] = true
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"generated", New(), true},
		{"empty", "", false},
		{"too short", "01ARZ3NDEKTSV4RRFFQ69G5FA", false},
		{"lowercase", "01arz3ndektsv4rrffq69g5fav", false},
		{"excluded letter I", "01ARZ3NDEKTSV4RRFFQ69G5FAI", false},
		{"excluded letter L", "01ARZ3NDEKTSV4RRFFQ69G5FAL", false},
		{"excluded letter O", "01ARZ3NDEKTSV4RRFFQ69G5FAO", false},
		{"excluded letter U", "01ARZ3NDEKTSV4RRFFQ69G5FAU", false},
		{"valid fixed", "01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Valid(tc.in))
		})
	}
}
