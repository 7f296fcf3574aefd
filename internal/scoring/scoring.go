package scoring

import (
	"errors"

	"bioplus/api/internal/model"
)

// ErrAnswerCountMismatch is returned when the submission does not carry
// exactly one answer per question. Mismatched submissions are rejected
// rather than scored on the overlapping prefix.
var ErrAnswerCountMismatch = errors.New("answer count mismatch")

const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

type SubmittedAnswer struct {
	SelectedAnswer int
	TimeSpent      int
}

type Result struct {
	Answers    []model.Answer
	Score      float64
	Percentage float64
	Status     string
}

// Score grades a submission against the test's question list. Questions
// must be in test order. A correct answer awards the question's marks; an
// incorrect one deducts its negative-marking value. The aggregate is not
// clamped at zero, so a heavily negative run yields a negative score and
// percentage.
func Score(test model.Test, questions []model.Question, submitted []SubmittedAnswer) (Result, error) {
	if len(submitted) != len(questions) {
		return Result{}, ErrAnswerCountMismatch
	}

	answers := make([]model.Answer, 0, len(questions))
	score := 0.0
	for i, question := range questions {
		isCorrect := submitted[i].SelectedAnswer == question.CorrectAnswerIndex
		awarded := question.Marks
		if !isCorrect {
			awarded = -question.NegativeMarking
		}
		score += awarded

		answers = append(answers, model.Answer{
			QuestionID:     question.ID,
			SelectedAnswer: submitted[i].SelectedAnswer,
			IsCorrect:      isCorrect,
			MarksAwarded:   awarded,
			TimeSpent:      submitted[i].TimeSpent,
		})
	}

	percentage := 0.0
	if test.TotalMarks != 0 {
		percentage = score / test.TotalMarks * 100
	}

	status := StatusFailed
	if score >= test.PassingMarks {
		status = StatusPassed
	}

	return Result{
		Answers:    answers,
		Score:      score,
		Percentage: percentage,
		Status:     status,
	}, nil
}
