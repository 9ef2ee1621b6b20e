package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)
	resets := &PasswordResetService{Store: st, Mailer: mailer}

	pair, _, err := sessions.Register(ctx, "reset@example.com", "OldSecret#1", "Reset")
	require.NoError(t, err)

	require.NoError(t, resets.Request(ctx, "reset@example.com"))
	code := mailer.waitForResetCode(t, "reset@example.com")
	require.Len(t, code, ResetCodeDigits)

	// Only the hash is stored
	active, err := st.PasswordResetTokens().ListActivePasswordResetTokens(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.NotEqual(t, code, active[0].CodeHash)

	require.NoError(t, resets.ValidateCode(ctx, code))

	require.NoError(t, resets.ResetPassword(ctx, code, "NewSecret#2"))

	// Code is single use
	err = resets.ResetPassword(ctx, code, "Another#3")
	require.ErrorIs(t, err, ErrBadRequest)

	// Sessions revoked, old password dead, new one works
	_, err = sessions.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = sessions.Login(ctx, "reset@example.com", "OldSecret#1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = sessions.Login(ctx, "reset@example.com", "NewSecret#2")
	require.NoError(t, err)
}

func TestPasswordResetSupersedesPriorCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)
	resets := &PasswordResetService{Store: st, Mailer: mailer}

	_, _, err := sessions.Register(ctx, "latest@example.com", "Secret#123", "Latest")
	require.NoError(t, err)

	require.NoError(t, resets.Request(ctx, "latest@example.com"))
	require.Eventually(t, func() bool {
		return mailer.resetCodeCount("latest@example.com") >= 1
	}, 2*time.Second, 10*time.Millisecond)
	first := mailer.lastResetCode("latest@example.com")

	require.NoError(t, resets.Request(ctx, "latest@example.com"))
	require.Eventually(t, func() bool {
		return mailer.resetCodeCount("latest@example.com") >= 2
	}, 2*time.Second, 10*time.Millisecond)
	second := mailer.lastResetCode("latest@example.com")

	// First code is dead even if it has not expired
	if first != second {
		require.ErrorIs(t, resets.ValidateCode(ctx, first), ErrBadRequest)
	}
	require.NoError(t, resets.ValidateCode(ctx, second))
}

func TestPasswordResetCodeConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)

	hooked := &hookedStore{Store: st}
	resets := &PasswordResetService{Store: hooked, Mailer: mailer}

	_, _, err := sessions.Register(ctx, "race@example.com", "OldSecret#1", "Race")
	require.NoError(t, err)

	require.NoError(t, resets.Request(ctx, "race@example.com"))
	code := mailer.waitForResetCode(t, "race@example.com")

	// A competing request redeems the code between our lookup and the
	// consuming transaction; only one of the two may succeed.
	winner := &PasswordResetService{Store: st, Mailer: mailer}
	hooked.beforeTx = func() {
		require.NoError(t, winner.ResetPassword(ctx, code, "WinnerSecret#2"))
	}

	err = resets.ResetPassword(ctx, code, "LoserSecret#3")
	require.ErrorIs(t, err, ErrBadRequest)

	// Only the winner's password took effect
	_, _, err = sessions.Login(ctx, "race@example.com", "WinnerSecret#2")
	require.NoError(t, err)
	_, _, err = sessions.Login(ctx, "race@example.com", "LoserSecret#3")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	resets := &PasswordResetService{Store: st, Mailer: mailer}

	// No error and no mail for unregistered addresses
	require.NoError(t, resets.Request(ctx, "ghost@example.com"))

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, mailer.resetCodeCount("ghost@example.com"))
}

func TestPasswordResetRateLimit(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)
	resets := &PasswordResetService{Store: st, Mailer: mailer, RequestsPerDay: 3}

	_, _, err := sessions.Register(ctx, "limited@example.com", "Secret#123", "Limited")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, resets.Request(ctx, "limited@example.com"))
	}

	err = resets.Request(ctx, "limited@example.com")
	require.ErrorIs(t, err, ErrRateLimited)

	// Another address has its own budget
	require.NoError(t, resets.Request(ctx, "other@example.com"))
}

func TestPasswordResetLimiterEviction(t *testing.T) {
	resets := &PasswordResetService{RequestsPerDay: 2}

	require.True(t, resets.allow("a@example.com"))
	require.Contains(t, resets.limiters, "a@example.com")

	// A refilled bucket marks the limiter idle; the next sweep drops it
	resets.limiters["a@example.com"] = rate.NewLimiter(rate.Every(time.Hour), 2)
	resets.lastSweep = time.Time{}

	require.True(t, resets.allow("b@example.com"))
	require.NotContains(t, resets.limiters, "a@example.com")
	require.Contains(t, resets.limiters, "b@example.com")
}

func TestPasswordResetExpiredCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)

	base := time.Now()
	resets := &PasswordResetService{
		Store:  st,
		Mailer: mailer,
		Now:    func() time.Time { return base },
	}

	_, _, err := sessions.Register(ctx, "expired@example.com", "Secret#123", "Expired")
	require.NoError(t, err)

	require.NoError(t, resets.Request(ctx, "expired@example.com"))
	code := mailer.waitForResetCode(t, "expired@example.com")

	resets.Now = func() time.Time { return base.Add(DefaultResetCodeTTL + time.Minute) }

	require.ErrorIs(t, resets.ValidateCode(ctx, code), ErrBadRequest)
	require.ErrorIs(t, resets.ResetPassword(ctx, code, "NewSecret#2"), ErrBadRequest)
}

func TestPasswordResetSweep(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newFakeMailer()
	sessions := newSessionService(t, st, mailer)

	base := time.Now()
	resets := &PasswordResetService{
		Store:  st,
		Mailer: mailer,
		Now:    func() time.Time { return base },
	}

	_, _, err := sessions.Register(ctx, "sweep@example.com", "Secret#123", "Sweep")
	require.NoError(t, err)

	require.NoError(t, resets.Request(ctx, "sweep@example.com"))
	mailer.waitForResetCode(t, "sweep@example.com")

	resets.Now = func() time.Time { return base.Add(DefaultResetCodeTTL + time.Minute) }

	// Sweep is idempotent
	require.NoError(t, resets.Sweep(ctx))
	require.NoError(t, resets.Sweep(ctx))

	active, err := st.PasswordResetTokens().ListActivePasswordResetTokens(ctx, base)
	require.NoError(t, err)
	require.Empty(t, active)
}
