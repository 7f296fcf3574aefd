package httpapi

import (
	"fmt"
	"net/http"
	"strings"
)

const explainSystemPrompt = "You are a biology tutor for school students. " +
	"Explain concepts clearly and concisely, at the level of the student's grade. " +
	"Use short paragraphs and concrete examples."

const recommendationsSystemPrompt = "You are a study coach for a biology learning app. " +
	"Given a student's recent test performance, suggest specific topics to revise " +
	"and a short practical study plan. Keep it under 200 words."

func (s *Server) handleExplainConcept(w http.ResponseWriter, r *http.Request) {
	if !s.ai.Available() {
		writeError(w, http.StatusBadGateway, "ai_unavailable")
		return
	}
	var req struct {
		Concept string `json:"concept"`
		Grade   string `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Concept) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	prompt := fmt.Sprintf("Explain the concept %q", req.Concept)
	if req.Grade != "" {
		prompt += fmt.Sprintf(" for a grade %s student", req.Grade)
	}
	content, err := s.ai.Complete(r.Context(), explainSystemPrompt, prompt, 800)
	if err != nil {
		writeError(w, http.StatusBadGateway, "ai_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": content})
}

func (s *Server) handleStudyRecommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if !s.ai.Available() {
		writeError(w, http.StatusBadGateway, "ai_unavailable")
		return
	}

	// Recommendations are grounded on the student's actual history.
	summary, err := s.tests.Dashboard(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	results, err := s.tests.ListResults(r.Context(), user.ID, 10)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "The student has taken %d tests, passed %d, with an average of %.1f%%.\n",
		summary.TestsTaken, summary.TestsPassed, summary.AveragePercentage)
	if user.Grade != nil {
		fmt.Fprintf(&sb, "The student is in grade %s.\n", *user.Grade)
	}
	if len(results) > 0 {
		sb.WriteString("Recent results:\n")
		for _, result := range results {
			fmt.Fprintf(&sb, "- %.1f%% (%s)\n", result.Percentage, result.Status)
		}
	}

	content, err := s.ai.Complete(r.Context(), recommendationsSystemPrompt, sb.String(), 600)
	if err != nil {
		writeError(w, http.StatusBadGateway, "ai_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recommendations": content})
}
