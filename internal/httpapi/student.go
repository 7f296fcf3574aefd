package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bioplus/api/internal/model"
	"bioplus/api/internal/scoring"
	"bioplus/api/internal/service"
)

type testSummaryResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	SubjectID     string  `json:"subjectId"`
	ChapterID     *string `json:"chapterId,omitempty"`
	Grade         string  `json:"grade"`
	QuestionCount int     `json:"questionCount"`
	TotalMarks    float64 `json:"totalMarks"`
	PassingMarks  float64 `json:"passingMarks"`
	Duration      int     `json:"duration"`
	Type          string  `json:"type"`
	MaxAttempts   int     `json:"maxAttempts"`
}

func mapTestSummary(test model.Test) testSummaryResponse {
	return testSummaryResponse{
		ID:            test.ID,
		Title:         test.Title,
		Description:   test.Description,
		SubjectID:     test.SubjectID,
		ChapterID:     test.ChapterID,
		Grade:         test.Grade,
		QuestionCount: len(test.QuestionIDs),
		TotalMarks:    test.TotalMarks,
		PassingMarks:  test.PassingMarks,
		Duration:      test.Duration,
		Type:          test.Type,
		MaxAttempts:   test.MaxAttempts,
	}
}

// studentQuestionResponse deliberately omits the correct answer index and
// explanation; those only come back on a graded result.
type studentQuestionResponse struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Marks   float64  `json:"marks"`
}

func (s *Server) handleListStudentTests(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject")
	grade := r.URL.Query().Get("grade")
	limit := parseLimit(r, 50)

	tests, err := s.store.ListTests(r.Context(), subjectID, grade, true, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]testSummaryResponse, 0, len(tests))
	for _, test := range tests {
		resp = append(resp, mapTestSummary(test))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStudentTest(w http.ResponseWriter, r *http.Request) {
	test, questions, err := s.tests.GetTestForStudent(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	questionResp := make([]studentQuestionResponse, 0, len(questions))
	for _, question := range questions {
		questionResp = append(questionResp, studentQuestionResponse{
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options,
			Marks:   question.Marks,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"test":      mapTestSummary(test),
		"questions": questionResp,
	})
}

type resultResponse struct {
	ID            string    `json:"id"`
	TestID        string    `json:"testId"`
	Score         float64   `json:"score"`
	TotalMarks    float64   `json:"totalMarks"`
	Percentage    float64   `json:"percentage"`
	TimeTaken     int       `json:"timeTaken"`
	Status        string    `json:"status"`
	AttemptNumber int       `json:"attemptNumber"`
	CompletedAt   time.Time `json:"completedAt"`

	Answers []answerResponse `json:"answers,omitempty"`
}

type answerResponse struct {
	QuestionID     string  `json:"questionId"`
	SelectedAnswer int     `json:"selectedAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
	MarksAwarded   float64 `json:"marksAwarded"`
	TimeSpent      int     `json:"timeSpent"`
}

func mapResult(result model.TestResult, includeAnswers bool) resultResponse {
	resp := resultResponse{
		ID:            result.ID,
		TestID:        result.TestID,
		Score:         result.Score,
		TotalMarks:    result.TotalMarks,
		Percentage:    result.Percentage,
		TimeTaken:     result.TimeTaken,
		Status:        result.Status,
		AttemptNumber: result.AttemptNumber,
		CompletedAt:   result.CompletedAt,
	}
	if includeAnswers {
		for _, answer := range result.Answers {
			resp.Answers = append(resp.Answers, answerResponse{
				QuestionID:     answer.QuestionID,
				SelectedAnswer: answer.SelectedAnswer,
				IsCorrect:      answer.IsCorrect,
				MarksAwarded:   answer.MarksAwarded,
				TimeSpent:      answer.TimeSpent,
			})
		}
	}
	return resp
}

func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req struct {
		TestID  string `json:"testId"`
		Answers []struct {
			SelectedAnswer int `json:"selectedAnswer"`
			TimeSpent      int `json:"timeSpent"`
		} `json:"answers"`
		TimeTaken int        `json:"timeTaken"`
		StartedAt *time.Time `json:"startedAt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TestID == "" || len(req.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	answers := make([]scoring.SubmittedAnswer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, scoring.SubmittedAnswer{
			SelectedAnswer: answer.SelectedAnswer,
			TimeSpent:      answer.TimeSpent,
		})
	}
	input := service.SubmitInput{
		TestID:    req.TestID,
		Answers:   answers,
		TimeTaken: req.TimeTaken,
	}
	if req.StartedAt != nil {
		input.StartedAt = *req.StartedAt
	}

	result, err := s.tests.SubmitTest(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResult(result, true))
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	results, err := s.tests.ListResults(r.Context(), user.ID, parseLimit(r, 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]resultResponse, 0, len(results))
	for _, result := range results {
		resp = append(resp, mapResult(result, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	result, err := s.tests.GetResult(r.Context(), user.ID, chi.URLParam(r, "resultID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResult(result, true))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	summary, err := s.tests.Dashboard(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"testsTaken":        summary.TestsTaken,
		"testsPassed":       summary.TestsPassed,
		"averagePercentage": summary.AveragePercentage,
	})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	bookmarks, err := s.store.ListBookmarks(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		resp = append(resp, map[string]any{
			"id":        bookmark.ID,
			"itemType":  bookmark.ItemType,
			"itemId":    bookmark.ItemID,
			"createdAt": bookmark.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	var req struct {
		ItemType string `json:"itemType"`
		ItemID   string `json:"itemId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ItemType == "" || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ItemType != "note" && req.ItemType != "test" && req.ItemType != "question" {
		writeError(w, http.StatusBadRequest, "invalid_item_type")
		return
	}

	bookmark := model.Bookmark{
		ID:        uuid.NewString(),
		StudentID: user.ID,
		ItemType:  req.ItemType,
		ItemID:    req.ItemID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateBookmark(r.Context(), bookmark); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": bookmark.ID})
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if err := s.store.DeleteBookmark(r.Context(), user.ID, chi.URLParam(r, "bookmarkID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
