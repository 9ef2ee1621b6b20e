package domain

import (
	"strings"
	"time"
)

// Roles assignable to StreetFix accounts. Citizens file defect reports;
// admins triage them.
const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// User is the account record owned by the user directory. The auth core
// reads it for credential checks and flips EmailVerified; everything else
// about users belongs to other services.
type User struct {
	ID            string
	Email         string // always stored lower-cased and trimmed
	PasswordHash  string // argon2id PHC encoded; empty for OAuth-only accounts
	Name          string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the client-safe projection of a User. The password hash
// never leaves the service.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the user without any secret material.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// NormalizeEmail lower-cases and trims an email address. Every email that
// reaches persistence or comparison goes through here first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
