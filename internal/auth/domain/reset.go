package domain

import "time"

// PasswordResetToken is the stored record for a short-lived numeric reset
// code. Only the argon2id hash of the code is persisted; the plaintext exists
// exactly once, in the outbound email. Because the hash is salted, rows
// cannot be looked up by equality; validation scans the active set and
// re-hash-compares.
type PasswordResetToken struct {
	ID        string
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
