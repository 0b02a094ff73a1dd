package models

import (
	"strings"
	"time"
)

// Supported account roles.
const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
)

// User is an account able to sign in to the records API.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidRole reports whether role is one of the supported account roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFaculty:
		return true
	default:
		return false
	}
}
