package domain

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleITAdmin  Role = "IT_ADMIN"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	return r == RoleEmployee || r == RoleITAdmin
}

// User is the domain model for everyone who can log in. Employees file
// tickets; IT admins triage them. Accounts are created on first login and
// soft-deactivated, never deleted.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash *string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the IT admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleITAdmin
}
