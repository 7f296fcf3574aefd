package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bioplus/api/internal/model"
	"bioplus/api/internal/repository"
	"bioplus/api/internal/scoring"
)

type statBump struct {
	questionID string
	correct    bool
}

type fakeTestStore struct {
	tests     map[string]model.Test
	questions map[string]model.Question
	results   []model.TestResult
	bumps     []statBump
}

func newFakeTestStore() *fakeTestStore {
	return &fakeTestStore{
		tests:     make(map[string]model.Test),
		questions: make(map[string]model.Question),
	}
}

func (f *fakeTestStore) GetTest(_ context.Context, testID string) (model.Test, error) {
	if test, ok := f.tests[testID]; ok {
		return test, nil
	}
	return model.Test{}, repository.ErrNotFound
}

func (f *fakeTestStore) CountAttempts(_ context.Context, testID, studentID string) (int, error) {
	count := 0
	for _, result := range f.results {
		if result.TestID == testID && result.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTestStore) GetQuestionsByIDs(_ context.Context, ids []string) ([]model.Question, error) {
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		question, ok := f.questions[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		ordered = append(ordered, question)
	}
	return ordered, nil
}

func (f *fakeTestStore) CreateTestResult(_ context.Context, result model.TestResult) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeTestStore) BumpQuestionStats(_ context.Context, questionID string, correct bool) {
	f.bumps = append(f.bumps, statBump{questionID: questionID, correct: correct})
}

func (f *fakeTestStore) ListResultsByStudent(_ context.Context, studentID string, _ int) ([]model.TestResult, error) {
	var results []model.TestResult
	for _, result := range f.results {
		if result.StudentID == studentID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (f *fakeTestStore) GetResultAnswers(_ context.Context, resultID string) ([]model.Answer, error) {
	for _, result := range f.results {
		if result.ID == resultID {
			return result.Answers, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTestStore) GetDashboard(_ context.Context, studentID string) (repository.DashboardSummary, error) {
	var summary repository.DashboardSummary
	var total float64
	for _, result := range f.results {
		if result.StudentID != studentID {
			continue
		}
		summary.TestsTaken++
		if result.Status == scoring.StatusPassed {
			summary.TestsPassed++
		}
		total += result.Percentage
	}
	if summary.TestsTaken > 0 {
		summary.AveragePercentage = total / float64(summary.TestsTaken)
	}
	return summary, nil
}

// seedTest installs a 5-question test worth 50 marks, passing at 25, with
// 2 negative marks per wrong answer. Correct answer is index 1 everywhere.
func seedTest(store *fakeTestStore, maxAttempts int) model.Test {
	questionIDs := []string{"q1", "q2", "q3", "q4", "q5"}
	for _, id := range questionIDs {
		store.questions[id] = model.Question{
			ID:                 id,
			Text:               "pick the second option",
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: 1,
			Marks:              10,
			NegativeMarking:    2,
			Active:             true,
		}
	}
	test := model.Test{
		ID:           "t1",
		Title:        "Cell Biology Unit Test",
		QuestionIDs:  questionIDs,
		TotalMarks:   50,
		PassingMarks: 25,
		MaxAttempts:  maxAttempts,
		Published:    true,
		Active:       true,
	}
	store.tests[test.ID] = test
	return test
}

func answersAll(selected, n int) []scoring.SubmittedAnswer {
	answers := make([]scoring.SubmittedAnswer, n)
	for i := range answers {
		answers[i] = scoring.SubmittedAnswer{SelectedAnswer: selected, TimeSpent: 30}
	}
	return answers
}

func TestSubmitTestPassing(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 3)
	svc := NewTestService(store)

	result, err := svc.SubmitTest(context.Background(), "student-1", SubmitInput{
		TestID:    "t1",
		Answers:   answersAll(1, 5),
		TimeTaken: 300,
		StartedAt: time.Now().Add(-5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 50 || result.Percentage != 100 {
		t.Fatalf("expected 50/100%%, got %v/%v", result.Score, result.Percentage)
	}
	if result.Status != scoring.StatusPassed {
		t.Fatalf("expected passed, got %s", result.Status)
	}
	if result.AttemptNumber != 1 {
		t.Fatalf("expected attempt 1, got %d", result.AttemptNumber)
	}
	if len(store.results) != 1 {
		t.Fatal("result not persisted")
	}
	if len(store.bumps) != 5 {
		t.Fatalf("expected 5 stat bumps, got %d", len(store.bumps))
	}
	for _, bump := range store.bumps {
		if !bump.correct {
			t.Fatalf("bump for %s should be correct", bump.questionID)
		}
	}
}

func TestSubmitTestNegativeMarking(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 0)
	svc := NewTestService(store)

	// All wrong: 5 * -2 = -10, percentage -20, not clamped.
	result, err := svc.SubmitTest(context.Background(), "student-1", SubmitInput{
		TestID:  "t1",
		Answers: answersAll(0, 5),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != -10 || result.Percentage != -20 {
		t.Fatalf("expected -10/-20%%, got %v/%v", result.Score, result.Percentage)
	}
	if result.Status != scoring.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}

func TestSubmitTestAttemptLimit(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 2)
	svc := NewTestService(store)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		result, err := svc.SubmitTest(ctx, "student-1", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)})
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if result.AttemptNumber != i {
			t.Fatalf("expected attempt %d, got %d", i, result.AttemptNumber)
		}
	}

	if _, err := svc.SubmitTest(ctx, "student-1", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)}); !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("expected ErrMaxAttemptsExceeded, got %v", err)
	}

	// The limit is per student.
	if _, err := svc.SubmitTest(ctx, "student-2", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)}); err != nil {
		t.Fatalf("other student must not be limited: %v", err)
	}
}

func TestSubmitTestMalformedSubmission(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 0)
	svc := NewTestService(store)

	_, err := svc.SubmitTest(context.Background(), "student-1", SubmitInput{TestID: "t1", Answers: answersAll(1, 3)})
	if !errors.Is(err, ErrMalformedSubmission) {
		t.Fatalf("expected ErrMalformedSubmission, got %v", err)
	}
	if len(store.results) != 0 {
		t.Fatal("malformed submission must not persist a result")
	}
}

func TestSubmitTestHiddenTests(t *testing.T) {
	store := newFakeTestStore()
	test := seedTest(store, 0)
	svc := NewTestService(store)
	ctx := context.Background()

	if _, err := svc.SubmitTest(ctx, "s", SubmitInput{TestID: "missing", Answers: answersAll(1, 5)}); !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound for missing test, got %v", err)
	}

	test.Published = false
	store.tests[test.ID] = test
	if _, err := svc.SubmitTest(ctx, "s", SubmitInput{TestID: test.ID, Answers: answersAll(1, 5)}); !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("unpublished test must read as not found, got %v", err)
	}

	test.Published = true
	test.Active = false
	store.tests[test.ID] = test
	if _, err := svc.SubmitTest(ctx, "s", SubmitInput{TestID: test.ID, Answers: answersAll(1, 5)}); !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("inactive test must read as not found, got %v", err)
	}
}

func TestSubmitTestMissingQuestion(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 0)
	delete(store.questions, "q3")
	svc := NewTestService(store)

	if _, err := svc.SubmitTest(context.Background(), "s", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)}); !errors.Is(err, ErrQuestionSetIncomplete) {
		t.Fatalf("expected ErrQuestionSetIncomplete, got %v", err)
	}
}

func TestGetResultScopedToStudent(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 0)
	svc := NewTestService(store)
	ctx := context.Background()

	created, err := svc.SubmitTest(ctx, "student-1", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.GetResult(ctx, "student-1", created.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if len(result.Answers) != 5 {
		t.Fatalf("expected 5 answers, got %d", len(result.Answers))
	}

	if _, err := svc.GetResult(ctx, "student-2", created.ID); !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("other student's result must be hidden, got %v", err)
	}
}

func TestDashboardAggregates(t *testing.T) {
	store := newFakeTestStore()
	seedTest(store, 0)
	svc := NewTestService(store)
	ctx := context.Background()

	if _, err := svc.SubmitTest(ctx, "student-1", SubmitInput{TestID: "t1", Answers: answersAll(1, 5)}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SubmitTest(ctx, "student-1", SubmitInput{TestID: "t1", Answers: answersAll(0, 5)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	summary, err := svc.Dashboard(ctx, "student-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if summary.TestsTaken != 2 || summary.TestsPassed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AveragePercentage != 40 {
		t.Fatalf("expected average 40 (100 and -20), got %v", summary.AveragePercentage)
	}
}
