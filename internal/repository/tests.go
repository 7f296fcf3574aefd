package repository

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"bioplus/api/internal/db"
	"bioplus/api/internal/model"
)

const questionColumns = `
	id, question_text, options, correct_answer_index, explanation,
	subject_id, chapter_id, grade, marks, negative_marking, active,
	import_batch_id, times_used, correct_attempts, total_attempts,
	created_by, created_at, updated_at`

func scanQuestion(row userRow) (model.Question, error) {
	var question model.Question
	err := row.Scan(
		&question.ID,
		&question.Text,
		&question.Options,
		&question.CorrectAnswerIndex,
		&question.Explanation,
		&question.SubjectID,
		&question.ChapterID,
		&question.Grade,
		&question.Marks,
		&question.NegativeMarking,
		&question.Active,
		&question.ImportBatchID,
		&question.TimesUsed,
		&question.CorrectAttempts,
		&question.TotalAttempts,
		&question.CreatedBy,
		&question.CreatedAt,
		&question.UpdatedAt,
	)
	return question, mapRowErr(err)
}

func (s *Store) CreateQuestion(ctx context.Context, question model.Question) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (
			id, question_text, options, correct_answer_index, explanation,
			subject_id, chapter_id, grade, marks, negative_marking, active,
			import_batch_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, question.ID, question.Text, question.Options, question.CorrectAnswerIndex,
		question.Explanation, question.SubjectID, question.ChapterID, question.Grade,
		question.Marks, question.NegativeMarking, question.Active, question.ImportBatchID,
		question.CreatedBy, question.CreatedAt, question.UpdatedAt)
	return err
}

// CreateQuestions inserts an import batch in one transaction so a failed
// upload leaves no partial batch behind.
func (s *Store) CreateQuestions(ctx context.Context, questions []model.Question) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, question := range questions {
			_, err := tx.Exec(ctx, `
				INSERT INTO questions (
					id, question_text, options, correct_answer_index, explanation,
					subject_id, chapter_id, grade, marks, negative_marking, active,
					import_batch_id, created_by, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			`, question.ID, question.Text, question.Options, question.CorrectAnswerIndex,
				question.Explanation, question.SubjectID, question.ChapterID, question.Grade,
				question.Marks, question.NegativeMarking, question.Active, question.ImportBatchID,
				question.CreatedBy, question.CreatedAt, question.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (model.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+questionColumns+` FROM questions WHERE id = $1`, questionID)
	return scanQuestion(row)
}

// GetQuestionsByIDs returns questions in the order of the given id list,
// which is the test's question order.
func (s *Store) GetQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT`+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]model.Question, len(ids))
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[question.ID] = question
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		question, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		ordered = append(ordered, question)
	}
	return ordered, nil
}

func (s *Store) ListQuestions(ctx context.Context, subjectID, grade string, limit int) ([]model.Question, error) {
	query := `SELECT` + questionColumns + ` FROM questions WHERE active = TRUE`
	args := []any{}
	if subjectID != "" {
		args = append(args, subjectID)
		query += ` AND subject_id = $1`
	}
	if grade != "" {
		args = append(args, grade)
		if len(args) == 1 {
			query += ` AND grade = $1`
		} else {
			query += ` AND grade = $2`
		}
	}
	args = append(args, limit)
	switch len(args) {
	case 1:
		query += ` ORDER BY created_at DESC LIMIT $1`
	case 2:
		query += ` ORDER BY created_at DESC LIMIT $2`
	default:
		query += ` ORDER BY created_at DESC LIMIT $3`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// UpdateQuestion rewrites the editable fields; usage counters are owned by
// BumpQuestionStats and never touched here.
func (s *Store) UpdateQuestion(ctx context.Context, question model.Question) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET question_text = $1, options = $2, correct_answer_index = $3,
			explanation = $4, subject_id = $5, chapter_id = $6, grade = $7,
			marks = $8, negative_marking = $9, active = $10, updated_at = $11
		WHERE id = $12
	`, question.Text, question.Options, question.CorrectAnswerIndex, question.Explanation,
		question.SubjectID, question.ChapterID, question.Grade, question.Marks,
		question.NegativeMarking, question.Active, question.UpdatedAt, question.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpQuestionStats increments usage counters after a submission. Callers
// treat failures as best-effort; they are logged here and not returned.
func (s *Store) BumpQuestionStats(ctx context.Context, questionID string, correct bool) {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET times_used = times_used + 1,
			total_attempts = total_attempts + 1,
			correct_attempts = correct_attempts + $1,
			updated_at = $2
		WHERE id = $3
	`, correctInc, time.Now().UTC(), questionID)
	if err != nil {
		log.Printf("question stats update failed for %s: %v", questionID, err)
	}
}

const testColumns = `
	id, title, description, subject_id, chapter_id, grade, question_ids,
	total_marks, passing_marks, duration, test_type, max_attempts,
	published, active, created_by, created_at, updated_at`

func scanTest(row userRow) (model.Test, error) {
	var test model.Test
	err := row.Scan(
		&test.ID,
		&test.Title,
		&test.Description,
		&test.SubjectID,
		&test.ChapterID,
		&test.Grade,
		&test.QuestionIDs,
		&test.TotalMarks,
		&test.PassingMarks,
		&test.Duration,
		&test.Type,
		&test.MaxAttempts,
		&test.Published,
		&test.Active,
		&test.CreatedBy,
		&test.CreatedAt,
		&test.UpdatedAt,
	)
	return test, mapRowErr(err)
}

func (s *Store) CreateTest(ctx context.Context, test model.Test) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tests (
			id, title, description, subject_id, chapter_id, grade, question_ids,
			total_marks, passing_marks, duration, test_type, max_attempts,
			published, active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, test.ID, test.Title, test.Description, test.SubjectID, test.ChapterID,
		test.Grade, test.QuestionIDs, test.TotalMarks, test.PassingMarks, test.Duration,
		test.Type, test.MaxAttempts, test.Published, test.Active, test.CreatedBy,
		test.CreatedAt, test.UpdatedAt)
	return err
}

func (s *Store) GetTest(ctx context.Context, testID string) (model.Test, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+testColumns+` FROM tests WHERE id = $1`, testID)
	return scanTest(row)
}

func (s *Store) ListTests(ctx context.Context, subjectID, grade string, publishedOnly bool, limit int) ([]model.Test, error) {
	query := `SELECT` + testColumns + ` FROM tests WHERE active = TRUE`
	args := []any{}
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	if subjectID != "" {
		args = append(args, subjectID)
		query += ` AND subject_id = $1`
	}
	if grade != "" {
		args = append(args, grade)
		if len(args) == 1 {
			query += ` AND grade = $1`
		} else {
			query += ` AND grade = $2`
		}
	}
	args = append(args, limit)
	switch len(args) {
	case 1:
		query += ` ORDER BY created_at DESC LIMIT $1`
	case 2:
		query += ` ORDER BY created_at DESC LIMIT $2`
	default:
		query += ` ORDER BY created_at DESC LIMIT $3`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	return tests, rows.Err()
}

// UpdateTest rewrites the test definition. Published stays as it is; the
// publish endpoint owns that flag.
func (s *Store) UpdateTest(ctx context.Context, test model.Test) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tests
		SET title = $1, description = $2, subject_id = $3, chapter_id = $4,
			grade = $5, question_ids = $6, total_marks = $7, passing_marks = $8,
			duration = $9, test_type = $10, max_attempts = $11, active = $12,
			updated_at = $13
		WHERE id = $14
	`, test.Title, test.Description, test.SubjectID, test.ChapterID, test.Grade,
		test.QuestionIDs, test.TotalMarks, test.PassingMarks, test.Duration,
		test.Type, test.MaxAttempts, test.Active, test.UpdatedAt, test.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetTestPublished(ctx context.Context, testID string, published bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tests SET published = $1, updated_at = $2 WHERE id = $3
	`, published, time.Now().UTC(), testID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTest(ctx context.Context, testID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, testID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
