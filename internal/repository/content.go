package repository

import (
	"context"

	"bioplus/api/internal/model"
)

func (s *Store) CreateSubject(ctx context.Context, subject model.Subject) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subjects (id, name, grade, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, subject.ID, subject.Name, subject.Grade, subject.Description, subject.CreatedAt, subject.UpdatedAt)
	return err
}

func (s *Store) GetSubject(ctx context.Context, subjectID string) (model.Subject, error) {
	var subject model.Subject
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, grade, description, created_at, updated_at
		FROM subjects WHERE id = $1
	`, subjectID)
	err := row.Scan(&subject.ID, &subject.Name, &subject.Grade, &subject.Description, &subject.CreatedAt, &subject.UpdatedAt)
	return subject, mapRowErr(err)
}

func (s *Store) ListSubjects(ctx context.Context, grade string) ([]model.Subject, error) {
	query := `
		SELECT id, name, grade, description, created_at, updated_at
		FROM subjects`
	args := []any{}
	if grade != "" {
		query += ` WHERE grade = $1`
		args = append(args, grade)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Grade, &subject.Description, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *Store) UpdateSubject(ctx context.Context, subject model.Subject) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subjects SET name = $1, grade = $2, description = $3, updated_at = $4
		WHERE id = $5
	`, subject.Name, subject.Grade, subject.Description, subject.UpdatedAt, subject.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, subjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateChapter(ctx context.Context, chapter model.Chapter) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chapters (id, subject_id, title, chapter_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, chapter.ID, chapter.SubjectID, chapter.Title, chapter.Order, chapter.CreatedAt, chapter.UpdatedAt)
	return err
}

func (s *Store) ListChapters(ctx context.Context, subjectID string) ([]model.Chapter, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subject_id, title, chapter_order, created_at, updated_at
		FROM chapters WHERE subject_id = $1 ORDER BY chapter_order, title
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var chapter model.Chapter
		if err := rows.Scan(&chapter.ID, &chapter.SubjectID, &chapter.Title, &chapter.Order, &chapter.CreatedAt, &chapter.UpdatedAt); err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

func (s *Store) UpdateChapter(ctx context.Context, chapter model.Chapter) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE chapters SET title = $1, chapter_order = $2, updated_at = $3
		WHERE id = $4
	`, chapter.Title, chapter.Order, chapter.UpdatedAt, chapter.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteChapter(ctx context.Context, chapterID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, chapterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateNote(ctx context.Context, note model.Note) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, subject_id, chapter_id, title, content, grade, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, note.ID, note.SubjectID, note.ChapterID, note.Title, note.Content, note.Grade, note.CreatedBy, note.CreatedAt, note.UpdatedAt)
	return err
}

func (s *Store) GetNote(ctx context.Context, noteID string) (model.Note, error) {
	var note model.Note
	row := s.pool.QueryRow(ctx, `
		SELECT id, subject_id, chapter_id, title, content, grade, created_by, created_at, updated_at
		FROM notes WHERE id = $1
	`, noteID)
	err := row.Scan(&note.ID, &note.SubjectID, &note.ChapterID, &note.Title, &note.Content, &note.Grade, &note.CreatedBy, &note.CreatedAt, &note.UpdatedAt)
	return note, mapRowErr(err)
}

func (s *Store) ListNotes(ctx context.Context, subjectID, grade string) ([]model.Note, error) {
	query := `
		SELECT id, subject_id, chapter_id, title, content, grade, created_by, created_at, updated_at
		FROM notes WHERE 1=1`
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
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(&note.ID, &note.SubjectID, &note.ChapterID, &note.Title, &note.Content, &note.Grade, &note.CreatedBy, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (s *Store) UpdateNote(ctx context.Context, note model.Note) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notes SET subject_id = $1, chapter_id = $2, title = $3, content = $4,
			grade = $5, updated_at = $6
		WHERE id = $7
	`, note.SubjectID, note.ChapterID, note.Title, note.Content, note.Grade, note.UpdatedAt, note.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
