package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/opencivic/streetfix/internal/auth/domain"
)

type usersRepo struct {
	q queryer
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, email_verified, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, email_verified, created_at, updated_at
		FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, mapStringNull(u.PasswordHash), u.Name, u.Role,
		boolToInt(u.EmailVerified), u.CreatedAt, u.UpdatedAt)
	return mapConflict(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u        domain.User
		hash     sql.NullString
		verified int
	)
	err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &u.Role, &verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.PasswordHash = mapNullString(hash)
	u.EmailVerified = verified != 0
	return u, nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
