package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"bioplus/api/internal/db"
	"bioplus/api/internal/model"
)

// CreateTestResult persists the result row and its answers atomically.
// Results are append-only; nothing ever updates these rows.
func (s *Store) CreateTestResult(ctx context.Context, result model.TestResult) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO test_results (
				id, test_id, student_id, score, total_marks, percentage,
				time_taken, status, attempt_number, started_at, completed_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, result.ID, result.TestID, result.StudentID, result.Score, result.TotalMarks,
			result.Percentage, result.TimeTaken, result.Status, result.AttemptNumber,
			result.StartedAt, result.CompletedAt, result.CreatedAt)
		if err != nil {
			return err
		}

		for i, answer := range result.Answers {
			_, err = tx.Exec(ctx, `
				INSERT INTO test_result_answers (
					result_id, answer_index, question_id, selected_answer,
					is_correct, marks_awarded, time_spent
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, result.ID, i, answer.QuestionID, answer.SelectedAnswer,
				answer.IsCorrect, answer.MarksAwarded, answer.TimeSpent)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) CountAttempts(ctx context.Context, testID, studentID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM test_results WHERE test_id = $1 AND student_id = $2
	`, testID, studentID).Scan(&count)
	return count, err
}

func (s *Store) ListResultsByStudent(ctx context.Context, studentID string, limit int) ([]model.TestResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, test_id, student_id, score, total_marks, percentage,
			time_taken, status, attempt_number, started_at, completed_at, created_at
		FROM test_results
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var result model.TestResult
		err := rows.Scan(
			&result.ID, &result.TestID, &result.StudentID, &result.Score,
			&result.TotalMarks, &result.Percentage, &result.TimeTaken,
			&result.Status, &result.AttemptNumber, &result.StartedAt,
			&result.CompletedAt, &result.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *Store) GetResultAnswers(ctx context.Context, resultID string) ([]model.Answer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id, selected_answer, is_correct, marks_awarded, time_spent
		FROM test_result_answers
		WHERE result_id = $1
		ORDER BY answer_index
	`, resultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var answer model.Answer
		if err := rows.Scan(&answer.QuestionID, &answer.SelectedAnswer, &answer.IsCorrect, &answer.MarksAwarded, &answer.TimeSpent); err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

type DashboardSummary struct {
	TestsTaken        int
	TestsPassed       int
	AveragePercentage float64
}

func (s *Store) GetDashboard(ctx context.Context, studentID string) (DashboardSummary, error) {
	var summary DashboardSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'passed'),
			COALESCE(AVG(percentage), 0)
		FROM test_results
		WHERE student_id = $1
	`, studentID).Scan(&summary.TestsTaken, &summary.TestsPassed, &summary.AveragePercentage)
	return summary, err
}

func (s *Store) CreateBookmark(ctx context.Context, bookmark model.Bookmark) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookmarks (id, student_id, item_type, item_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, item_type, item_id) DO NOTHING
	`, bookmark.ID, bookmark.StudentID, bookmark.ItemType, bookmark.ItemID, bookmark.CreatedAt)
	return err
}

func (s *Store) ListBookmarks(ctx context.Context, studentID string) ([]model.Bookmark, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, item_type, item_id, created_at
		FROM bookmarks WHERE student_id = $1 ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []model.Bookmark
	for rows.Next() {
		var bookmark model.Bookmark
		if err := rows.Scan(&bookmark.ID, &bookmark.StudentID, &bookmark.ItemType, &bookmark.ItemID, &bookmark.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, bookmark)
	}
	return bookmarks, rows.Err()
}

func (s *Store) DeleteBookmark(ctx context.Context, studentID, bookmarkID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM bookmarks WHERE id = $1 AND student_id = $2
	`, bookmarkID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
