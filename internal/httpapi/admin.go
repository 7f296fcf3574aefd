package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bioplus/api/internal/model"
	"bioplus/api/internal/xmlimport"
)

// Subjects

type subjectRequest struct {
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	Description string `json:"description"`
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.Grade == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	now := time.Now().UTC()
	subject := model.Subject{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Grade:       req.Grade,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSubject(r.Context(), subject); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subjectResponse(subject))
}

func subjectResponse(subject model.Subject) map[string]any {
	return map[string]any{
		"id":          subject.ID,
		"name":        subject.Name,
		"grade":       subject.Grade,
		"description": subject.Description,
		"createdAt":   subject.CreatedAt,
	}
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.store.ListSubjects(r.Context(), r.URL.Query().Get("grade"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(subjects))
	for _, subject := range subjects {
		resp = append(resp, subjectResponse(subject))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := s.store.GetSubject(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjectResponse(subject))
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.Grade == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	subject := model.Subject{
		ID:          chi.URLParam(r, "subjectID"),
		Name:        req.Name,
		Grade:       req.Grade,
		Description: req.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.UpdateSubject(r.Context(), subject); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjectResponse(subject))
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSubject(r.Context(), chi.URLParam(r, "subjectID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chapters

func (s *Server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID string `json:"subjectId"`
		Title     string `json:"title"`
		Order     int    `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil || req.SubjectID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if _, err := s.store.GetSubject(r.Context(), req.SubjectID); err != nil {
		writeStoreError(w, err)
		return
	}
	now := time.Now().UTC()
	chapter := model.Chapter{
		ID:        uuid.NewString(),
		SubjectID: req.SubjectID,
		Title:     req.Title,
		Order:     req.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateChapter(r.Context(), chapter); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        chapter.ID,
		"subjectId": chapter.SubjectID,
		"title":     chapter.Title,
		"order":     chapter.Order,
	})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.store.ListChapters(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(chapters))
	for _, chapter := range chapters {
		resp = append(resp, map[string]any{
			"id":        chapter.ID,
			"subjectId": chapter.SubjectID,
			"title":     chapter.Title,
			"order":     chapter.Order,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateChapter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Order int    `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	chapter := model.Chapter{
		ID:        chi.URLParam(r, "chapterID"),
		Title:     req.Title,
		Order:     req.Order,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpdateChapter(r.Context(), chapter); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    chapter.ID,
		"title": chapter.Title,
		"order": chapter.Order,
	})
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChapter(r.Context(), chi.URLParam(r, "chapterID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notes

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	var req struct {
		SubjectID string  `json:"subjectId"`
		ChapterID *string `json:"chapterId"`
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		Grade     string  `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil || req.SubjectID == "" || req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	now := time.Now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		SubjectID: req.SubjectID,
		ChapterID: req.ChapterID,
		Title:     req.Title,
		Content:   req.Content,
		Grade:     req.Grade,
		CreatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNote(r.Context(), note); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteResponse(note))
}

func noteResponse(note model.Note) map[string]any {
	return map[string]any{
		"id":        note.ID,
		"subjectId": note.SubjectID,
		"chapterId": note.ChapterID,
		"title":     note.Title,
		"content":   note.Content,
		"grade":     note.Grade,
		"createdAt": note.CreatedAt,
	}
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context(), r.URL.Query().Get("subject"), r.URL.Query().Get("grade"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		resp = append(resp, noteResponse(note))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.store.GetNote(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID string  `json:"subjectId"`
		ChapterID *string `json:"chapterId"`
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		Grade     string  `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil || req.SubjectID == "" || req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	note := model.Note{
		ID:        chi.URLParam(r, "noteID"),
		SubjectID: req.SubjectID,
		ChapterID: req.ChapterID,
		Title:     req.Title,
		Content:   req.Content,
		Grade:     req.Grade,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpdateNote(r.Context(), note); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), chi.URLParam(r, "noteID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Questions

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	var req struct {
		Text               string   `json:"text"`
		Options            []string `json:"options"`
		CorrectAnswerIndex int      `json:"correctAnswerIndex"`
		Explanation        string   `json:"explanation"`
		SubjectID          *string  `json:"subjectId"`
		ChapterID          *string  `json:"chapterId"`
		Grade              string   `json:"grade"`
		Marks              float64  `json:"marks"`
		NegativeMarking    float64  `json:"negativeMarking"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Options) < 2 || req.CorrectAnswerIndex < 0 || req.CorrectAnswerIndex >= len(req.Options) {
		writeError(w, http.StatusBadRequest, "invalid_question")
		return
	}
	if req.NegativeMarking < 0 {
		writeError(w, http.StatusBadRequest, "invalid_question")
		return
	}
	if req.Marks <= 0 {
		req.Marks = 1
	}

	now := time.Now().UTC()
	question := model.Question{
		ID:                 uuid.NewString(),
		Text:               req.Text,
		Options:            req.Options,
		CorrectAnswerIndex: req.CorrectAnswerIndex,
		Explanation:        req.Explanation,
		SubjectID:          req.SubjectID,
		ChapterID:          req.ChapterID,
		Grade:              req.Grade,
		Marks:              req.Marks,
		NegativeMarking:    req.NegativeMarking,
		Active:             true,
		CreatedBy:          &user.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateQuestion(r.Context(), question); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": question.ID})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.store.ListQuestions(r.Context(), r.URL.Query().Get("subject"), r.URL.Query().Get("grade"), parseLimit(r, 100))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(questions))
	for _, question := range questions {
		resp = append(resp, mapQuestion(question))
	}
	writeJSON(w, http.StatusOK, resp)
}

func mapQuestion(question model.Question) map[string]any {
	return map[string]any{
		"id":                 question.ID,
		"text":               question.Text,
		"options":            question.Options,
		"correctAnswerIndex": question.CorrectAnswerIndex,
		"explanation":        question.Explanation,
		"grade":              question.Grade,
		"marks":              question.Marks,
		"negativeMarking":    question.NegativeMarking,
		"timesUsed":          question.TimesUsed,
		"totalAttempts":      question.TotalAttempts,
		"correctAttempts":    question.CorrectAttempts,
	}
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := s.store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapQuestion(question))
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text               string   `json:"text"`
		Options            []string `json:"options"`
		CorrectAnswerIndex int      `json:"correctAnswerIndex"`
		Explanation        string   `json:"explanation"`
		SubjectID          *string  `json:"subjectId"`
		ChapterID          *string  `json:"chapterId"`
		Grade              string   `json:"grade"`
		Marks              float64  `json:"marks"`
		NegativeMarking    float64  `json:"negativeMarking"`
		Active             *bool    `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Options) < 2 || req.CorrectAnswerIndex < 0 || req.CorrectAnswerIndex >= len(req.Options) {
		writeError(w, http.StatusBadRequest, "invalid_question")
		return
	}
	if req.NegativeMarking < 0 {
		writeError(w, http.StatusBadRequest, "invalid_question")
		return
	}
	if req.Marks <= 0 {
		req.Marks = 1
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	question := model.Question{
		ID:                 chi.URLParam(r, "questionID"),
		Text:               req.Text,
		Options:            req.Options,
		CorrectAnswerIndex: req.CorrectAnswerIndex,
		Explanation:        req.Explanation,
		SubjectID:          req.SubjectID,
		ChapterID:          req.ChapterID,
		Grade:              req.Grade,
		Marks:              req.Marks,
		NegativeMarking:    req.NegativeMarking,
		Active:             active,
		UpdatedAt:          time.Now().UTC(),
	}
	if err := s.store.UpdateQuestion(r.Context(), question); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": question.ID})
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportQuestions ingests an XML batch. The whole batch shares one
// import id so a bad upload can be traced or cleaned up afterwards.
func (s *Server) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	result, err := xmlimport.Parse(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_xml")
		return
	}

	grade := r.URL.Query().Get("grade")
	var subjectID *string
	if subject := r.URL.Query().Get("subject"); subject != "" {
		subjectID = &subject
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()
	questions := make([]model.Question, 0, len(result.Questions))
	for _, parsed := range result.Questions {
		questionGrade := parsed.Grade
		if questionGrade == "" {
			questionGrade = grade
		}
		questions = append(questions, model.Question{
			ID:                 uuid.NewString(),
			Text:               parsed.Text,
			Options:            parsed.Options,
			CorrectAnswerIndex: parsed.CorrectAnswerIndex,
			Explanation:        parsed.Explanation,
			SubjectID:          subjectID,
			Grade:              questionGrade,
			Marks:              parsed.Marks,
			NegativeMarking:    parsed.NegativeMarking,
			Active:             true,
			ImportBatchID:      &batchID,
			CreatedBy:          &user.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	// All-or-nothing: the batch is one transaction.
	if err := s.store.CreateQuestions(r.Context(), questions); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batchId":  batchID,
		"imported": len(questions),
		"skipped":  len(result.Skipped),
		"errors":   result.Skipped,
	})
}

// Tests

func (s *Server) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	var req struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		SubjectID    string   `json:"subjectId"`
		ChapterID    *string  `json:"chapterId"`
		Grade        string   `json:"grade"`
		QuestionIDs  []string `json:"questionIds"`
		PassingMarks float64  `json:"passingMarks"`
		Duration     int      `json:"duration"`
		Type         string   `json:"type"`
		MaxAttempts  int      `json:"maxAttempts"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Title == "" || req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.QuestionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "missing_questions")
		return
	}

	// Total marks come from the referenced questions, which must all exist.
	questions, err := s.store.GetQuestionsByIDs(r.Context(), req.QuestionIDs)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	totalMarks := 0.0
	for _, question := range questions {
		totalMarks += question.Marks
	}
	if req.PassingMarks < 0 || req.PassingMarks > totalMarks {
		writeError(w, http.StatusBadRequest, "invalid_passing_marks")
		return
	}

	now := time.Now().UTC()
	test := model.Test{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		SubjectID:    req.SubjectID,
		ChapterID:    req.ChapterID,
		Grade:        req.Grade,
		QuestionIDs:  req.QuestionIDs,
		TotalMarks:   totalMarks,
		PassingMarks: req.PassingMarks,
		Duration:     req.Duration,
		Type:         req.Type,
		MaxAttempts:  req.MaxAttempts,
		Published:    false,
		Active:       true,
		CreatedBy:    user.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateTest(r.Context(), test); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapTestSummary(test))
}

func (s *Server) handleListAdminTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.store.ListTests(r.Context(), r.URL.Query().Get("subject"), r.URL.Query().Get("grade"), false, parseLimit(r, 100))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(tests))
	for _, test := range tests {
		summary := mapTestSummary(test)
		resp = append(resp, map[string]any{
			"test":      summary,
			"published": test.Published,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAdminTest(w http.ResponseWriter, r *http.Request) {
	test, err := s.store.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"test":        mapTestSummary(test),
		"questionIds": test.QuestionIDs,
		"published":   test.Published,
		"active":      test.Active,
	})
}

func (s *Server) handleUpdateTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		SubjectID    string   `json:"subjectId"`
		ChapterID    *string  `json:"chapterId"`
		Grade        string   `json:"grade"`
		QuestionIDs  []string `json:"questionIds"`
		PassingMarks float64  `json:"passingMarks"`
		Duration     int      `json:"duration"`
		Type         string   `json:"type"`
		MaxAttempts  int      `json:"maxAttempts"`
		Active       *bool    `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Title == "" || req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.QuestionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "missing_questions")
		return
	}

	current, err := s.store.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// Total marks follow the new question set, same as on create.
	questions, err := s.store.GetQuestionsByIDs(r.Context(), req.QuestionIDs)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	totalMarks := 0.0
	for _, question := range questions {
		totalMarks += question.Marks
	}
	if req.PassingMarks < 0 || req.PassingMarks > totalMarks {
		writeError(w, http.StatusBadRequest, "invalid_passing_marks")
		return
	}
	active := current.Active
	if req.Active != nil {
		active = *req.Active
	}

	test := model.Test{
		ID:           current.ID,
		Title:        req.Title,
		Description:  req.Description,
		SubjectID:    req.SubjectID,
		ChapterID:    req.ChapterID,
		Grade:        req.Grade,
		QuestionIDs:  req.QuestionIDs,
		TotalMarks:   totalMarks,
		PassingMarks: req.PassingMarks,
		Duration:     req.Duration,
		Type:         req.Type,
		MaxAttempts:  req.MaxAttempts,
		Published:    current.Published,
		Active:       active,
		CreatedBy:    current.CreatedBy,
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.store.UpdateTest(r.Context(), test); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTestSummary(test))
}

func (s *Server) handlePublishTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Published bool `json:"published"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.store.SetTestPublished(r.Context(), chi.URLParam(r, "testID"), req.Published); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"published": req.Published})
}

func (s *Server) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTest(r.Context(), chi.URLParam(r, "testID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Users

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, mapUser(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	user, err := s.admin.SetUserStatus(r.Context(), chi.URLParam(r, "userID"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Role == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	user, err := s.admin.SetUserRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}
