package domain

import "time"

// Role is the coarse authorization level of a user.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account created from an OAuth login, unique per
// (provider, provider_id). The first registered user becomes Admin.
type User struct {
	ID          string
	Email       string
	Name        string
	AvatarURL   string
	Role        Role
	Provider    string
	ProviderID  string
	CreatedAt   time.Time
	LastLoginAt time.Time
	IsActive    bool
}
