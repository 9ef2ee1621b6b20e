package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, id, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Name:         "Seed",
		Role:         domain.RoleCitizen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := seedUser(t, s, "01USER00000000000000000001", "one@example.com")

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)
	require.Equal(t, u.PasswordHash, byID.PasswordHash)
	require.False(t, byID.EmailVerified)

	byEmail, err := s.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetUserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	seedUser(t, s, "01USER00000000000000000001", "same@example.com")

	err := s.Users().CreateUser(ctx, domain.User{
		ID:        "01USER00000000000000000002",
		Email:     "same@example.com",
		Role:      domain.RoleCitizen,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestMarkEmailVerified(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := seedUser(t, s, "01USER00000000000000000001", "flip@example.com")

	require.NoError(t, s.Users().MarkEmailVerified(ctx, u.ID))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.EmailVerified)
}

func TestRefreshTokensLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	u := seedUser(t, s, "01USER00000000000000000001", "tokens@example.com")

	rt := domain.RefreshToken{
		ID:        "01TOKEN0000000000000000001",
		UserID:    u.ID,
		TokenHash: "hash-one",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-one")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
	require.False(t, got.Revoked)

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-one"))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-one")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	// Revoking an unknown hash is a no-op
	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "never-existed"))

	require.NoError(t, s.RefreshTokens().DeleteAllUserRefreshTokens(ctx, u.ID))
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-one")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	u := seedUser(t, s, "01USER00000000000000000001", "expiry@example.com")

	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(time.Hour)} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        "01TOKEN000000000000000000" + string(rune('1'+i)),
			UserID:    u.ID,
			TokenHash: "hash-" + string(rune('a'+i)),
			ExpiresAt: exp,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now))

	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-a")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-b")
	require.NoError(t, err)
}

func TestPasswordResetTokenQueries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	u := seedUser(t, s, "01USER00000000000000000001", "codes@example.com")

	mk := func(id string, expires time.Time) {
		require.NoError(t, s.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
			ID:        id,
			UserID:    u.ID,
			CodeHash:  "hash-" + id,
			ExpiresAt: expires,
			CreatedAt: now,
		}))
	}
	mk("01RESET0000000000000000001", now.Add(time.Hour))
	mk("01RESET0000000000000000002", now.Add(-time.Hour)) // already expired

	active, err := s.PasswordResetTokens().ListActivePasswordResetTokens(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "01RESET0000000000000000001", active[0].ID)

	require.NoError(t, s.PasswordResetTokens().MarkAllUserPasswordResetTokensUsed(ctx, u.ID))
	active, err = s.PasswordResetTokens().ListActivePasswordResetTokens(ctx, now)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, s.PasswordResetTokens().DeleteUsedOrExpiredPasswordResetTokens(ctx, now))
}

func TestMarkPasswordResetTokenUsedConsumesOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	u := seedUser(t, s, "01USER00000000000000000001", "once@example.com")

	require.NoError(t, s.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
		ID:        "01RESET0000000000000000001",
		UserID:    u.ID,
		CodeHash:  "hash-once",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))

	require.NoError(t, s.PasswordResetTokens().MarkPasswordResetTokenUsed(ctx, "01RESET0000000000000000001"))

	// A second consume finds no unused row
	err := s.PasswordResetTokens().MarkPasswordResetTokenUsed(ctx, "01RESET0000000000000000001")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.PasswordResetTokens().MarkPasswordResetTokenUsed(ctx, "01RESET0000000000000000099")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkEmailVerificationTokenUsedConsumesOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	u := seedUser(t, s, "01USER00000000000000000001", "verify@example.com")

	require.NoError(t, s.EmailVerificationTokens().CreateEmailVerificationToken(ctx, domain.EmailVerificationToken{
		ID:        "01VERIFY000000000000000001",
		UserID:    u.ID,
		Token:     "token-once",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))

	require.NoError(t, s.EmailVerificationTokens().MarkEmailVerificationTokenUsed(ctx, "01VERIFY000000000000000001"))

	err := s.EmailVerificationTokens().MarkEmailVerificationTokenUsed(ctx, "01VERIFY000000000000000001")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.EmailVerificationTokens().GetEmailVerificationToken(ctx, "token-once")
	require.NoError(t, err)
	require.True(t, got.Used)
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()

	// No such user, so the insert must be rejected
	err := s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        "01TOKEN0000000000000000001",
		UserID:    "01USER00000000000000000404",
		TokenHash: "orphan",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.Error(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:        "01USER00000000000000000001",
			Email:     "rollback@example.com",
			Role:      domain.RoleCitizen,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "rollback@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, domain.User{
			ID:        "01USER00000000000000000001",
			Email:     "commit@example.com",
			Role:      domain.RoleCitizen,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByEmail(ctx, "commit@example.com")
	require.NoError(t, err)
}
