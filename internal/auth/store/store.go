package store

import (
	"context"
	"errors"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories so each flow depends only on
// the operations it actually needs.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	PasswordResetTokens() PasswordResetTokens
	EmailVerificationTokens() EmailVerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Multi-step
	// operations that must be atomic (revoke-all-then-create on login,
	// consume-code-then-set-password on reset) go through here.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the user-directory surface this core consumes. Emails passed in
// must already be normalized (lower-cased, trimmed).
type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and the reset/verification flows.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// MarkEmailVerified flips email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, userID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1 for the single matching record.
	// Idempotent: unknown or already-revoked hashes are a no-op.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// DeleteAllUserRefreshTokens removes every record for the user. Called
	// at the start of every successful login to enforce a single active
	// session, and on logout-all. Idempotent.
	DeleteAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens removes rows past expiry (housekeeping).
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

type PasswordResetTokens interface {
	// CreatePasswordResetToken stores the hash of a freshly issued code.
	CreatePasswordResetToken(ctx context.Context, t domain.PasswordResetToken) error

	// ListActivePasswordResetTokens returns all unused, unexpired rows.
	// The caller re-hash-compares candidate codes against each; the active
	// set stays small because issuing supersedes and sweeps delete.
	ListActivePasswordResetTokens(ctx context.Context, now time.Time) ([]domain.PasswordResetToken, error)

	// MarkPasswordResetTokenUsed consumes a single unused code. Returns
	// ErrNotFound when the row is missing or already consumed, so a
	// transaction racing another consumer fails instead of double-spending.
	MarkPasswordResetTokenUsed(ctx context.Context, id string) error

	// MarkAllUserPasswordResetTokensUsed supersedes every outstanding code
	// for the user; only the most recently issued code is ever valid.
	MarkAllUserPasswordResetTokensUsed(ctx context.Context, userID string) error

	// DeleteUsedOrExpiredPasswordResetTokens removes consumed rows and rows
	// past expiry regardless of use (housekeeping).
	DeleteUsedOrExpiredPasswordResetTokens(ctx context.Context, now time.Time) error
}

type EmailVerificationTokens interface {
	// CreateEmailVerificationToken stores a freshly issued token.
	CreateEmailVerificationToken(ctx context.Context, t domain.EmailVerificationToken) error

	// GetEmailVerificationToken fetches a token by its raw value.
	GetEmailVerificationToken(ctx context.Context, token string) (domain.EmailVerificationToken, error)

	// MarkEmailVerificationTokenUsed consumes a single unused token.
	// Returns ErrNotFound when the row is missing or already consumed.
	MarkEmailVerificationTokenUsed(ctx context.Context, id string) error
}
