package domain

import "time"

// EmailVerificationToken is a one-time token proving ownership of an email
// address. Stored raw rather than hashed: it is single-use, short-lived, and
// grants nothing beyond flipping the verified flag.
type EmailVerificationToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
