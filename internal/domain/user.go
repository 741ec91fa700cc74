package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleClient   Role = "client"
	RoleEngineer Role = "engineer"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a member of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// User is the authenticated identity behind every operation. Role is never
// changed by the user themself; deactivation is admin-only.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Department   string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
