package domain

import "time"

// TokenPair is what a successful login, registration, or refresh returns:
// the short-lived access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // access token lifetime in seconds
}

// RefreshToken models the stored refresh token record. Only the SHA-256
// fingerprint of the opaque token is persisted; at most one unrevoked,
// unexpired row exists per user (single active session).
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 fingerprint, unique indexed
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
