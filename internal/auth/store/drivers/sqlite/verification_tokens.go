package sqlite

import (
	"context"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/internal/auth/store"
)

type verificationTokensRepo struct {
	q queryer
}

func (r *verificationTokensRepo) CreateEmailVerificationToken(ctx context.Context, t domain.EmailVerificationToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_verification_tokens (id, user_id, token, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt, boolToInt(t.Used), t.CreatedAt)
	return mapConflict(err)
}

func (r *verificationTokensRepo) GetEmailVerificationToken(ctx context.Context, token string) (domain.EmailVerificationToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM email_verification_tokens WHERE token = ?`, token)

	var (
		t    domain.EmailVerificationToken
		used int
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &used, &t.CreatedAt)
	if err != nil {
		return domain.EmailVerificationToken{}, mapNotFound(err)
	}
	t.Used = used != 0
	return t, nil
}

func (r *verificationTokensRepo) MarkEmailVerificationTokenUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE email_verification_tokens SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
