package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		grade TEXT,
		status TEXT NOT NULL DEFAULT 'pending_verification',
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		login_attempts INT NOT NULL DEFAULT 0,
		lock_until TIMESTAMPTZ,
		last_login TIMESTAMPTZ,
		verification_token_hash TEXT,
		verification_expires TIMESTAMPTZ,
		reset_token_hash TEXT,
		reset_expires TIMESTAMPTZ,
		refresh_token_hash TEXT,
		refresh_token_expires TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_verification_token ON users (verification_token_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users (reset_token_hash)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		grade TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subjects (id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		chapter_order INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subjects (id) ON DELETE CASCADE,
		chapter_id TEXT REFERENCES chapters (id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		question_text TEXT NOT NULL,
		options TEXT[] NOT NULL,
		correct_answer_index INT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		subject_id TEXT,
		chapter_id TEXT,
		grade TEXT NOT NULL DEFAULT '',
		marks DOUBLE PRECISION NOT NULL DEFAULT 1,
		negative_marking DOUBLE PRECISION NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		import_batch_id TEXT,
		times_used INT NOT NULL DEFAULT 0,
		correct_attempts INT NOT NULL DEFAULT 0,
		total_attempts INT NOT NULL DEFAULT 0,
		created_by TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_import_batch ON questions (import_batch_id)`,
	`CREATE TABLE IF NOT EXISTS tests (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		subject_id TEXT NOT NULL REFERENCES subjects (id) ON DELETE CASCADE,
		chapter_id TEXT REFERENCES chapters (id) ON DELETE SET NULL,
		grade TEXT NOT NULL,
		question_ids TEXT[] NOT NULL,
		total_marks DOUBLE PRECISION NOT NULL,
		passing_marks DOUBLE PRECISION NOT NULL,
		duration INT NOT NULL DEFAULT 0,
		test_type TEXT NOT NULL DEFAULT 'practice',
		max_attempts INT NOT NULL DEFAULT 1,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tests_subject_published ON tests (subject_id, published, active)`,
	`CREATE TABLE IF NOT EXISTS test_results (
		id TEXT PRIMARY KEY,
		test_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		total_marks DOUBLE PRECISION NOT NULL,
		percentage DOUBLE PRECISION NOT NULL,
		time_taken INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		attempt_number INT NOT NULL DEFAULT 1,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_test_results_student ON test_results (student_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_test_results_test_student ON test_results (test_id, student_id)`,
	`CREATE TABLE IF NOT EXISTS test_result_answers (
		result_id TEXT NOT NULL REFERENCES test_results (id) ON DELETE CASCADE,
		answer_index INT NOT NULL,
		question_id TEXT NOT NULL,
		selected_answer INT NOT NULL,
		is_correct BOOLEAN NOT NULL,
		marks_awarded DOUBLE PRECISION NOT NULL,
		time_spent INT NOT NULL DEFAULT 0,
		PRIMARY KEY (result_id, answer_index)
	)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		item_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (student_id, item_type, item_id)
	)`,
}

// Migrate applies the schema idempotently at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
