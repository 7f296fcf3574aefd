package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bioplus/api/internal/ai"
	"bioplus/api/internal/auth"
	"bioplus/api/internal/config"
	"bioplus/api/internal/model"
	"bioplus/api/internal/ratelimit"
	"bioplus/api/internal/repository"
	"bioplus/api/internal/service"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	auth     *service.AuthService
	admin    *service.AdminService
	tests    *service.TestService
	issuer   auth.Issuer
	ai       *ai.Client
	limiter  *ratelimit.Limiter
	requests *prometheus.CounterVec
}

func NewServer(cfg config.Config, store *repository.Store, authSvc *service.AuthService, adminSvc *service.AdminService, testSvc *service.TestService, issuer auth.Issuer, aiClient *ai.Client, limiter *ratelimit.Limiter) *Server {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bioplus_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	if err := prometheus.Register(requests); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			requests = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		auth:     authSvc,
		admin:    adminSvc,
		tests:    testSvc,
		issuer:   issuer,
		ai:       aiClient,
		limiter:  limiter,
		requests: requests,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(s.rateLimitMiddleware).Post("/auth/signup", s.handleSignup)
	r.With(s.rateLimitMiddleware).Post("/auth/login", s.handleLogin)
	r.Get("/auth/verify-email/{token}", s.handleVerifyEmail)
	r.With(s.rateLimitMiddleware).Post("/auth/resend-verification", s.handleResendVerification)
	r.With(s.rateLimitMiddleware).Post("/auth/forgot-password", s.handleForgotPassword)
	r.Post("/auth/reset-password/{token}", s.handleResetPassword)
	r.Post("/auth/refresh-token", s.handleRefreshToken)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Post("/auth/change-password", s.handleChangePassword)
	r.With(s.authMiddleware).Get("/auth/me", s.handleMe)

	r.With(s.authMiddleware).Post("/ai/explain-concept", s.handleExplainConcept)
	r.With(s.authMiddleware).Post("/ai/study-recommendations", s.handleStudyRecommendations)

	r.Route("/student", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleStudent))
		r.Get("/tests", s.handleListStudentTests)
		r.Get("/tests/{testID}", s.handleGetStudentTest)
		r.Post("/tests/submit", s.handleSubmitTest)
		r.Get("/results", s.handleListResults)
		r.Get("/results/{resultID}", s.handleGetResult)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/bookmarks", s.handleListBookmarks)
		r.Post("/bookmarks", s.handleCreateBookmark)
		r.Delete("/bookmarks/{bookmarkID}", s.handleDeleteBookmark)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleAdmin, model.RoleOwner))
		r.Get("/subjects", s.handleListSubjects)
		r.Post("/subjects", s.handleCreateSubject)
		r.Get("/subjects/{subjectID}", s.handleGetSubject)
		r.Put("/subjects/{subjectID}", s.handleUpdateSubject)
		r.Delete("/subjects/{subjectID}", s.handleDeleteSubject)
		r.Get("/subjects/{subjectID}/chapters", s.handleListChapters)
		r.Post("/chapters", s.handleCreateChapter)
		r.Put("/chapters/{chapterID}", s.handleUpdateChapter)
		r.Delete("/chapters/{chapterID}", s.handleDeleteChapter)
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleCreateNote)
		r.Get("/notes/{noteID}", s.handleGetNote)
		r.Put("/notes/{noteID}", s.handleUpdateNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)
		r.Get("/questions", s.handleListQuestions)
		r.Post("/questions", s.handleCreateQuestion)
		r.Get("/questions/{questionID}", s.handleGetQuestion)
		r.Put("/questions/{questionID}", s.handleUpdateQuestion)
		r.Delete("/questions/{questionID}", s.handleDeleteQuestion)
		r.Post("/questions/import", s.handleImportQuestions)
		r.Get("/tests", s.handleListAdminTests)
		r.Post("/tests", s.handleCreateTest)
		r.Get("/tests/{testID}", s.handleGetAdminTest)
		r.Put("/tests/{testID}", s.handleUpdateTest)
		r.Patch("/tests/{testID}/publish", s.handlePublishTest)
		r.Delete("/tests/{testID}", s.handleDeleteTest)
		r.Get("/users", s.handleListUsers)
		r.Patch("/users/{userID}/status", s.handleSetUserStatus)
	})

	r.Route("/owner", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleOwner))
		r.Patch("/users/{userID}/role", s.handleSetUserRole)
	})

	return r
}

// Middleware

type userKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := s.issuer.Verify(token, false)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		user, err := s.auth.GetUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		if user.Status == model.StatusSuspended {
			writeError(w, http.StatusForbidden, "account_not_active")
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey{}).(model.User)
	return user, ok
}

func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing_token")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			// Owners can do anything admins can.
			if user.Role == model.RoleOwner {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

// rateLimitMiddleware throttles the credential-guessing surface per client
// IP. Limiter failures fail open; losing redis must not take auth down.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := s.limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			log.Printf("rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "too_many_requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// writeStoreError handles errors from direct repository calls.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	log.Printf("store error: %v", err)
	writeError(w, http.StatusInternalServerError, "server_error")
}

// writeServiceError maps the business-rule sentinels onto the stable
// status/code pairs of the API; anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInvalidOrExpiredToken),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrMalformedSubmission),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountLocked),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrAccountNotActive),
		errors.Is(err, service.ErrMaxAttemptsExceeded):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailDelivery),
		errors.Is(err, service.ErrQuestionSetIncomplete):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
