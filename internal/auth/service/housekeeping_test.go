package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/pkg/cryptox"
	"github.com/opencivic/streetfix/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleansExpiredRecords(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newSessionService(t, st, newFakeMailer())

	_, user, err := sessions.Register(ctx, "house@example.com", "Secret#123", "House")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Hour)

	// Plant an already-expired refresh token and reset code
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken("stale-refresh"),
		ExpiresAt: past,
		CreatedAt: past,
		UpdatedAt: past,
	}))
	require.NoError(t, st.PasswordResetTokens().CreatePasswordResetToken(ctx, domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  "stale-hash",
		ExpiresAt: past,
		CreatedAt: past,
	}))

	hk := NewHousekeepingService(st, slog.Default(), time.Minute)
	hk.Start()
	hk.Stop()

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken("stale-refresh"))
	require.Error(t, err)

	active, err := st.PasswordResetTokens().ListActivePasswordResetTokens(ctx, past)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestHousekeepingStartStop(t *testing.T) {
	st := newTestStore(t)

	hk := NewHousekeepingService(st, slog.Default(), 10*time.Millisecond)
	hk.Start()
	time.Sleep(35 * time.Millisecond)
	hk.Stop() // must not hang or panic
}
