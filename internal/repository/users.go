package repository

import (
	"context"
	"time"

	"bioplus/api/internal/model"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, role, grade, status,
	email_verified, login_attempts, lock_until, last_login,
	verification_token_hash, verification_expires,
	reset_token_hash, reset_expires,
	refresh_token_hash, refresh_token_expires,
	created_at, updated_at`

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Grade,
		&user.Status,
		&user.EmailVerified,
		&user.LoginAttempts,
		&user.LockUntil,
		&user.LastLogin,
		&user.VerificationTokenHash,
		&user.VerificationExpires,
		&user.ResetTokenHash,
		&user.ResetExpires,
		&user.RefreshTokenHash,
		&user.RefreshTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, mapRowErr(err)
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, role, grade, status,
			email_verified, login_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.Grade, user.Status, user.EmailVerified, user.LoginAttempts,
		user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (s *Store) SetVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET verification_token_hash = $1, verification_expires = $2, updated_at = $3
		WHERE id = $4
	`, tokenHash, expires, time.Now().UTC(), userID)
	return err
}

func (s *Store) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users
		WHERE verification_token_hash = $1 AND verification_expires > $2
	`, tokenHash, now)
	return scanUser(row)
}

func (s *Store) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email_verified = TRUE, status = 'active',
			verification_token_hash = NULL, verification_expires = NULL,
			updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), userID)
	return err
}

// IncrementLoginAttempts bumps the failed-attempt counter in a single
// statement and applies the lock timestamp when the new value reaches the
// threshold, so concurrent failures cannot under-count.
func (s *Store) IncrementLoginAttempts(ctx context.Context, userID string, threshold int, lockUntil time.Time) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1,
			lock_until = CASE WHEN login_attempts + 1 >= $1 THEN $2 ELSE lock_until END,
			updated_at = $3
		WHERE id = $4
		RETURNING login_attempts
	`, threshold, lockUntil, time.Now().UTC(), userID).Scan(&attempts)
	return attempts, mapRowErr(err)
}

func (s *Store) RecordLogin(ctx context.Context, userID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, last_login = $1, updated_at = $1
		WHERE id = $2
	`, now, userID)
	return err
}

// StoreRefreshToken overwrites the stored digest, invalidating the prior
// refresh token in the same statement that persists the new one.
func (s *Store) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $1, refresh_token_expires = $2, updated_at = $3
		WHERE id = $4
	`, tokenHash, expires, time.Now().UTC(), userID)
	return err
}

func (s *Store) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires = NULL, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), userID)
	return err
}

func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = $1, reset_expires = $2, updated_at = $3
		WHERE id = $4
	`, tokenHash, expires, time.Now().UTC(), userID)
	return err
}

func (s *Store) ClearResetToken(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_expires = NULL, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), userID)
	return err
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users
		WHERE reset_token_hash = $1 AND reset_expires > $2
	`, tokenHash, now)
	return scanUser(row)
}

// ResetPassword installs the new hash and clears the reset token, the
// failed-attempt counter and any lock in one statement.
func (s *Store) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1,
			reset_token_hash = NULL, reset_expires = NULL,
			login_attempts = 0, lock_until = NULL,
			updated_at = $2
		WHERE id = $3
	`, passwordHash, time.Now().UTC(), userID)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3
	`, passwordHash, time.Now().UTC(), userID)
	return err
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserStatus(ctx context.Context, userID, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET status = $1, updated_at = $2 WHERE id = $3
	`, status, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, userID, role string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = $2 WHERE id = $3
	`, role, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredTokens nulls out verification and reset token columns whose
// expiry has passed. Returns the number of touched rows.
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET verification_token_hash = CASE WHEN verification_expires <= $1 THEN NULL ELSE verification_token_hash END,
			verification_expires = CASE WHEN verification_expires <= $1 THEN NULL ELSE verification_expires END,
			reset_token_hash = CASE WHEN reset_expires <= $1 THEN NULL ELSE reset_token_hash END,
			reset_expires = CASE WHEN reset_expires <= $1 THEN NULL ELSE reset_expires END
		WHERE verification_expires <= $1 OR reset_expires <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
