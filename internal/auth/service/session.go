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
	"github.com/opencivic/streetfix/pkg/jwtx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

// MinPasswordLength is the minimum accepted password length at registration
// and on any password change.
const MinPasswordLength = 8

// SessionService owns the credential and session lifecycle: registration,
// login, refresh, logout, and password changes. Each user has at most one
// active session; a successful login revokes all prior refresh tokens.
type SessionService struct {
	Store        store.Store
	Signer       jwtx.Signer
	Verification *VerificationService

	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a new citizen account and immediately starts a session
// for it. A verification email is sent in the background; a failed send
// never fails the registration.
func (s *SessionService) Register(ctx context.Context, email, password, name string) (*domain.TokenPair, *domain.User, error) {
	l := slogx.FromContext(ctx)
	now := s.now().UTC()

	email = domain.NormalizeEmail(email)
	if len(password) < MinPasswordLength {
		return nil, nil, ErrWeakPassword
	}

	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return nil, nil, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleCitizen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	if s.Verification != nil {
		// Detached context: the HTTP request finishing must not cancel the send.
		go func(u domain.User) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Verification.Send(slogx.WithContext(sendCtx, l), u); err != nil {
				l.Error("failed to send verification email",
					slog.String("user_id", u.ID),
					slog.String("error", err.Error()))
			}
		}(user)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return pair, &user, nil
}

// Login verifies the email/password pair and starts a fresh session.
// All failure modes collapse into ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	// Accounts without a local password (external identity only) cannot
	// log in with one.
	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}

	if err := cryptox.VerifySecret(password, user.PasswordHash); err != nil {
		l.Info("login failed", slog.String("user_id", user.ID))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return pair, &user, nil
}

// startSession issues an access/refresh pair and persists the refresh
// token. Revoking the user's prior tokens and storing the new one happen in
// one transaction so a concurrent login cannot leave two live sessions.
func (s *SessionService) startSession(ctx context.Context, user domain.User) (*domain.TokenPair, error) {
	now := s.now().UTC()

	refreshPlain, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return nil, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshPlain),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, user.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	access, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshPlain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

func (s *SessionService) signAccess(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(user.ID, user.Email, user.Role, s.AccessTTL, s.Issuer, []string{s.Audience}, now)
	return s.Signer.Sign(claims)
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself is not rotated: the single-session model means a
// stolen token is invalidated by the next genuine login, and not rotating
// keeps retries safe on flaky mobile networks.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := s.now().UTC()

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}

	if record.Revoked {
		return nil, ErrRefreshRevoked
	}
	if !record.ExpiresAt.After(now) {
		return nil, ErrRefreshExpired
	}

	user, err := s.Store.Users().GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}

	access, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// Logout revokes the presented refresh token. Idempotent: unknown or
// already-revoked tokens succeed silently.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken))
}

// LogoutAll removes every refresh token belonging to the user.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every session in the same transaction.
func (s *SessionService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.PasswordHash == "" || cryptox.VerifySecret(currentPassword, user.PasswordHash) != nil {
		return ErrInvalidCredentials
	}

	newHash, err := cryptox.HashSecret(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, newHash); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
	})
	if err != nil {
		return err
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}

// GetUser returns the user for the authenticated-user endpoints.
func (s *SessionService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
