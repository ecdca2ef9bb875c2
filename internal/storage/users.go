package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"presupuesto/internal/core"
)

// CreateUser inserts a user and returns the assigned id. A duplicate
// normalized email maps to core.ErrNameTaken.
func (s *Store) CreateUser(ctx context.Context, u core.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, normalized_email, password_hash) VALUES (?, ?, ?)`,
		u.Email, u.NormalizedEmail, u.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, core.ErrNameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read user id: %w", err)
	}
	return id, nil
}

func (s *Store) UserByEmail(ctx context.Context, normalizedEmail string) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, normalized_email, password_hash FROM users WHERE normalized_email = ?`,
		normalizedEmail).Scan(&u.ID, &u.Email, &u.NormalizedEmail, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset deletes the token and returns the owning user id.
// Missing and expired tokens both come back as core.ErrNotFound so a caller
// cannot distinguish them.
func (s *Store) ConsumePasswordReset(ctx context.Context, token string, now time.Time) (int64, error) {
	var userID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, expires_at FROM password_resets WHERE token = ?`, token).
			Scan(&userID, &expiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select password reset: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_resets WHERE token = ?`, token); err != nil {
			return fmt.Errorf("delete password reset: %w", err)
		}
		exp, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil || now.UTC().After(exp) {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}
