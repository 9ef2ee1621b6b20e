package sqlite

import (
	"context"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
	"github.com/opencivic/streetfix/internal/auth/store"
)

type resetTokensRepo struct {
	q queryer
}

func (r *resetTokensRepo) CreatePasswordResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, code_hash, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.CodeHash, t.ExpiresAt, boolToInt(t.Used), t.CreatedAt)
	return mapConflict(err)
}

func (r *resetTokensRepo) ListActivePasswordResetTokens(ctx context.Context, now time.Time) ([]domain.PasswordResetToken, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, code_hash, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE used = 0 AND expires_at > ?
		ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PasswordResetToken
	for rows.Next() {
		var (
			t    domain.PasswordResetToken
			used int
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.CodeHash, &t.ExpiresAt, &used, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Used = used != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *resetTokensRepo) MarkPasswordResetTokenUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE password_reset_tokens SET used = 1 WHERE id = ? AND used = 0`, id)
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

func (r *resetTokensRepo) MarkAllUserPasswordResetTokensUsed(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE password_reset_tokens SET used = 1 WHERE user_id = ?`, userID)
	return err
}

func (r *resetTokensRepo) DeleteUsedOrExpiredPasswordResetTokens(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM password_reset_tokens WHERE used = 1 OR expires_at <= ?`, now)
	return err
}
