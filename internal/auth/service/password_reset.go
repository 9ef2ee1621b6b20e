package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/internal/auth/store"
	"github.com/opencivic/streetfix/pkg/cryptox"
	"github.com/opencivic/streetfix/pkg/idx"
	"github.com/opencivic/streetfix/pkg/slogx"
	"golang.org/x/time/rate"
)

const (
	// ResetCodeDigits is the length of the numeric code emailed to users.
	ResetCodeDigits = 6

	// DefaultResetCodeTTL bounds how long an issued code stays redeemable.
	DefaultResetCodeTTL = 15 * time.Minute
)

// PasswordResetService implements the forgot-password flow: short numeric
// codes delivered by email, stored only as argon2id hashes, with a per-email
// request budget to stop enumeration and mailbox flooding.
type PasswordResetService struct {
	Store  store.Store
	Mailer Mailer

	// CodeTTL is how long a code stays valid. Zero means DefaultResetCodeTTL.
	CodeTTL time.Duration

	// RequestsPerDay caps reset requests per email address. Zero or
	// negative disables the limiter.
	RequestsPerDay int

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasswordResetService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultResetCodeTTL
}

// allow reports whether this email may issue another reset request today.
func (s *PasswordResetService) allow(email string) bool {
	if s.RequestsPerDay <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiters == nil {
		s.limiters = make(map[string]*rate.Limiter)
	}
	s.sweepIdleLimiters()

	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(s.RequestsPerDay)), s.RequestsPerDay)
		s.limiters[email] = lim
	}
	return lim.Allow()
}

// sweepIdleLimiters drops limiters whose buckets have refilled; an idle
// email's limiter holds no useful state and would otherwise pin an entry
// for every address ever probed. Caller must hold mu.
func (s *PasswordResetService) sweepIdleLimiters() {
	if time.Since(s.lastSweep) < time.Hour {
		return
	}
	s.lastSweep = time.Now()

	for email, lim := range s.limiters {
		if lim.Tokens() >= float64(s.RequestsPerDay) {
			delete(s.limiters, email)
		}
	}
}

// Request issues a reset code for the account behind email and hands it to
// the mailer. Unknown addresses succeed silently so the endpoint cannot be
// used to probe which emails are registered; the code is still generated
// and hashed to keep response timing comparable.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	now := s.now().UTC()

	email = domain.NormalizeEmail(email)

	if !s.allow(email) {
		return ErrResetRateLimited
	}

	code, err := cryptox.GenerateNumericCode(ResetCodeDigits)
	if err != nil {
		return err
	}
	codeHash, err := cryptox.HashSecret(code)
	if err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	record := domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  codeHash,
		ExpiresAt: now.Add(s.codeTTL()),
		CreatedAt: now,
	}

	// Supersede any outstanding codes: only the latest one is redeemable.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResetTokens().MarkAllUserPasswordResetTokensUsed(ctx, user.ID); err != nil {
			return err
		}
		return tx.PasswordResetTokens().CreatePasswordResetToken(ctx, record)
	})
	if err != nil {
		return err
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Mailer.SendPasswordResetEmail(sendCtx, user.Email, code); err != nil {
			l.Error("failed to send password reset email",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()))
		}
	}()

	l.Info("password reset code issued", slog.String("user_id", user.ID))
	return nil
}

// findByCode scans the active codes and hash-compares the candidate against
// each. Codes are random per request so a match identifies a single row.
func (s *PasswordResetService) findByCode(ctx context.Context, code string) (domain.PasswordResetToken, error) {
	active, err := s.Store.PasswordResetTokens().ListActivePasswordResetTokens(ctx, s.now().UTC())
	if err != nil {
		return domain.PasswordResetToken{}, err
	}

	for _, t := range active {
		if cryptox.VerifySecret(code, t.CodeHash) == nil {
			return t, nil
		}
	}
	return domain.PasswordResetToken{}, ErrResetCodeInvalid
}

// ValidateCode checks a code without consuming it, for the two-step UI that
// verifies the code before showing the new-password form.
func (s *PasswordResetService) ValidateCode(ctx context.Context, code string) error {
	_, err := s.findByCode(ctx, code)
	return err
}

// ResetPassword consumes a valid code, stores the new password hash, and
// revokes every session for the account in one transaction.
func (s *PasswordResetService) ResetPassword(ctx context.Context, code, newPassword string) error {
	l := slogx.FromContext(ctx)

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	token, err := s.findByCode(ctx, code)
	if err != nil {
		return err
	}

	newHash, err := cryptox.HashSecret(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The conditional consume fails if another request redeemed the
		// code between our lookup and this transaction.
		if err := tx.PasswordResetTokens().MarkPasswordResetTokenUsed(ctx, token.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrResetCodeInvalid
			}
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, token.UserID, newHash); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, token.UserID)
	})
	if err != nil {
		return err
	}

	l.Info("password reset completed", slog.String("user_id", token.UserID))
	return nil
}

// Sweep deletes consumed and expired reset codes. Safe to run repeatedly.
func (s *PasswordResetService) Sweep(ctx context.Context) error {
	return s.Store.PasswordResetTokens().DeleteUsedOrExpiredPasswordResetTokens(ctx, s.now().UTC())
}
