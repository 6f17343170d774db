package model

import (
	"fmt"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleTechnician
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:      2,
		RoleTechnician: 1,
	}
	have, want := levels[role], levels[minimum]
	if have == 0 || want == 0 {
		return false
	}
	return have >= want
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	var v ValidationError
	switch {
	case len(password) < MinPasswordLength:
		v.Add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(password) > MaxPasswordBytes:
		v.Add("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	return v.Err()
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the actor may perform administrative mutations.
func (a Actor) IsAdmin() bool {
	return a.UserID > 0 && a.Role == RoleAdmin
}

// Authenticated reports whether the actor identifies a user.
func (a Actor) Authenticated() bool {
	return a.UserID > 0
}
