package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/internal/auth/store"
	"github.com/opencivic/streetfix/pkg/cryptox"
	"github.com/opencivic/streetfix/pkg/idx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

// DefaultVerificationTokenTTL is how long an emailed verification link
// stays redeemable.
const DefaultVerificationTokenTTL = 24 * time.Hour

// VerificationService issues and redeems the opaque tokens embedded in
// verification emails. Tokens are long random strings delivered over a
// trusted channel, so they are stored as-is and looked up directly.
type VerificationService struct {
	Store  store.Store
	Mailer Mailer

	// TokenTTL is how long a token stays valid. Zero means
	// DefaultVerificationTokenTTL.
	TokenTTL time.Duration

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *VerificationService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultVerificationTokenTTL
}

// Issue creates and persists a fresh verification token for the user.
func (s *VerificationService) Issue(ctx context.Context, user domain.User) (string, error) {
	now := s.now().UTC()

	token, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return "", err
	}

	record := domain.EmailVerificationToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.tokenTTL()),
		CreatedAt: now,
	}

	if err := s.Store.EmailVerificationTokens().CreateEmailVerificationToken(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

// Send issues a token and emails it to the user.
func (s *VerificationService) Send(ctx context.Context, user domain.User) error {
	token, err := s.Issue(ctx, user)
	if err != nil {
		return err
	}
	return s.Mailer.SendVerificationEmail(ctx, user.Email, token)
}

// Verify redeems a verification token: marks it used and flips the user's
// email_verified flag in one transaction. Returns the freshly verified user.
func (s *VerificationService) Verify(ctx context.Context, token string) (*domain.User, error) {
	l := slogx.FromContext(ctx)
	now := s.now().UTC()

	record, err := s.Store.EmailVerificationTokens().GetEmailVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if record.Used {
		return nil, ErrTokenUsed
	}
	if !record.ExpiresAt.After(now) {
		return nil, ErrTokenExpired
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The conditional consume fails if another request redeemed the
		// token between our lookup and this transaction.
		if err := tx.EmailVerificationTokens().MarkEmailVerificationTokenUsed(ctx, record.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenUsed
			}
			return err
		}
		return tx.Users().MarkEmailVerified(ctx, record.UserID)
	})
	if err != nil {
		return nil, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	l.Info("email verified", slog.String("user_id", user.ID))
	return &user, nil
}

// Resend issues a new token for an unverified account. Unknown emails
// succeed silently to avoid leaking which addresses are registered;
// already-verified accounts get an explicit error since the caller proved
// control of the mailbox.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("verification resend requested for unknown email")
			return nil
		}
		return err
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := s.Issue(ctx, user)
	if err != nil {
		return err
	}

	if err := s.Mailer.SendVerificationEmail(ctx, user.Email, token); err != nil {
		l.Error("failed to send verification email",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()))
	}
	return nil
}
