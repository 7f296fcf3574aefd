package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bioplus/api/internal/model"
	"bioplus/api/internal/repository"
	"bioplus/api/internal/scoring"
)

// TestStore is the persistence surface for test taking and result
// history.
type TestStore interface {
	GetTest(ctx context.Context, testID string) (model.Test, error)
	CountAttempts(ctx context.Context, testID, studentID string) (int, error)
	GetQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error)
	CreateTestResult(ctx context.Context, result model.TestResult) error
	BumpQuestionStats(ctx context.Context, questionID string, correct bool)
	ListResultsByStudent(ctx context.Context, studentID string, limit int) ([]model.TestResult, error)
	GetResultAnswers(ctx context.Context, resultID string) ([]model.Answer, error)
	GetDashboard(ctx context.Context, studentID string) (repository.DashboardSummary, error)
}

type TestService struct {
	store TestStore
	now   func() time.Time
}

func NewTestService(store TestStore) *TestService {
	return &TestService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type SubmitInput struct {
	TestID    string
	Answers   []scoring.SubmittedAnswer
	TimeTaken int
	StartedAt time.Time
}

// SubmitTest grades a submission and records it as a new immutable
// attempt. Question stats are bumped best-effort after the result is
// committed.
func (s *TestService) SubmitTest(ctx context.Context, studentID string, input SubmitInput) (model.TestResult, error) {
	test, err := s.store.GetTest(ctx, input.TestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TestResult{}, ErrTestNotFound
		}
		return model.TestResult{}, err
	}
	if !test.Published || !test.Active {
		return model.TestResult{}, ErrTestNotFound
	}

	attempts, err := s.store.CountAttempts(ctx, test.ID, studentID)
	if err != nil {
		return model.TestResult{}, err
	}
	if test.MaxAttempts > 0 && attempts >= test.MaxAttempts {
		return model.TestResult{}, ErrMaxAttemptsExceeded
	}

	questions, err := s.store.GetQuestionsByIDs(ctx, test.QuestionIDs)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TestResult{}, ErrQuestionSetIncomplete
		}
		return model.TestResult{}, err
	}

	graded, err := scoring.Score(test, questions, input.Answers)
	if err != nil {
		if errors.Is(err, scoring.ErrAnswerCountMismatch) {
			return model.TestResult{}, ErrMalformedSubmission
		}
		return model.TestResult{}, err
	}

	now := s.now()
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	result := model.TestResult{
		ID:            uuid.NewString(),
		TestID:        test.ID,
		StudentID:     studentID,
		Answers:       graded.Answers,
		Score:         graded.Score,
		TotalMarks:    test.TotalMarks,
		Percentage:    graded.Percentage,
		TimeTaken:     input.TimeTaken,
		Status:        graded.Status,
		AttemptNumber: attempts + 1,
		StartedAt:     startedAt,
		CompletedAt:   now,
		CreatedAt:     now,
	}

	if err := s.store.CreateTestResult(ctx, result); err != nil {
		return model.TestResult{}, err
	}

	for _, answer := range graded.Answers {
		s.store.BumpQuestionStats(ctx, answer.QuestionID, answer.IsCorrect)
	}

	return result, nil
}

// GetTestForStudent returns a published test with its questions. The
// caller is responsible for withholding answer keys before serialization.
func (s *TestService) GetTestForStudent(ctx context.Context, testID string) (model.Test, []model.Question, error) {
	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Test{}, nil, ErrTestNotFound
		}
		return model.Test{}, nil, err
	}
	if !test.Published || !test.Active {
		return model.Test{}, nil, ErrTestNotFound
	}

	questions, err := s.store.GetQuestionsByIDs(ctx, test.QuestionIDs)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Test{}, nil, ErrQuestionSetIncomplete
		}
		return model.Test{}, nil, err
	}
	return test, questions, nil
}

func (s *TestService) ListResults(ctx context.Context, studentID string, limit int) ([]model.TestResult, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListResultsByStudent(ctx, studentID, limit)
}

// GetResult loads one of the student's results with its per-question
// answers. Results belonging to other students read as not found.
func (s *TestService) GetResult(ctx context.Context, studentID, resultID string) (model.TestResult, error) {
	results, err := s.store.ListResultsByStudent(ctx, studentID, 200)
	if err != nil {
		return model.TestResult{}, err
	}
	for _, result := range results {
		if result.ID != resultID {
			continue
		}
		answers, err := s.store.GetResultAnswers(ctx, resultID)
		if err != nil {
			return model.TestResult{}, err
		}
		result.Answers = answers
		return result, nil
	}
	return model.TestResult{}, ErrTestNotFound
}

func (s *TestService) Dashboard(ctx context.Context, studentID string) (repository.DashboardSummary, error) {
	return s.store.GetDashboard(ctx, studentID)
}
