package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bioplus/api/internal/ai"
	"bioplus/api/internal/auth"
	"bioplus/api/internal/config"
	"bioplus/api/internal/model"
	"bioplus/api/internal/ratelimit"
	"bioplus/api/internal/repository"
	"bioplus/api/internal/service"
)

// memStore backs the auth and test services in handler tests. The routes
// that talk to postgres directly are exercised by the integration test.
type memStore struct {
	users     map[string]*model.User
	tests     map[string]model.Test
	questions map[string]model.Question
	results   []model.TestResult
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*model.User),
		tests:     make(map[string]model.Test),
		questions: make(map[string]model.Question),
	}
}

func (m *memStore) CreateUser(_ context.Context, user model.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u := user
	m.users[user.ID] = &u
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return *user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	if user, ok := m.users[userID]; ok {
		return *user, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) SetVerificationToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	user := m.users[userID]
	user.VerificationTokenHash = &tokenHash
	user.VerificationExpires = &expires
	return nil
}

func (m *memStore) GetUserByVerificationToken(_ context.Context, tokenHash string, now time.Time) (model.User, error) {
	for _, user := range m.users {
		if user.VerificationTokenHash != nil && *user.VerificationTokenHash == tokenHash &&
			user.VerificationExpires != nil && user.VerificationExpires.After(now) {
			return *user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) MarkEmailVerified(_ context.Context, userID string) error {
	user := m.users[userID]
	user.EmailVerified = true
	user.Status = model.StatusActive
	user.VerificationTokenHash = nil
	user.VerificationExpires = nil
	return nil
}

func (m *memStore) IncrementLoginAttempts(_ context.Context, userID string, threshold int, lockUntil time.Time) (int, error) {
	user := m.users[userID]
	user.LoginAttempts++
	if user.LoginAttempts >= threshold {
		until := lockUntil
		user.LockUntil = &until
	}
	return user.LoginAttempts, nil
}

func (m *memStore) RecordLogin(_ context.Context, userID string, now time.Time) error {
	user := m.users[userID]
	user.LoginAttempts = 0
	user.LockUntil = nil
	at := now
	user.LastLogin = &at
	return nil
}

func (m *memStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	user := m.users[userID]
	user.RefreshTokenHash = &tokenHash
	user.RefreshTokenExpires = &expires
	return nil
}

func (m *memStore) ClearRefreshToken(_ context.Context, userID string) error {
	if user, ok := m.users[userID]; ok {
		user.RefreshTokenHash = nil
		user.RefreshTokenExpires = nil
	}
	return nil
}

func (m *memStore) SetResetToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	user := m.users[userID]
	user.ResetTokenHash = &tokenHash
	user.ResetExpires = &expires
	return nil
}

func (m *memStore) ClearResetToken(_ context.Context, userID string) error {
	if user, ok := m.users[userID]; ok {
		user.ResetTokenHash = nil
		user.ResetExpires = nil
	}
	return nil
}

func (m *memStore) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (model.User, error) {
	for _, user := range m.users {
		if user.ResetTokenHash != nil && *user.ResetTokenHash == tokenHash &&
			user.ResetExpires != nil && user.ResetExpires.After(now) {
			return *user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) ResetPassword(_ context.Context, userID, passwordHash string) error {
	user := m.users[userID]
	user.PasswordHash = passwordHash
	user.ResetTokenHash = nil
	user.ResetExpires = nil
	user.LoginAttempts = 0
	user.LockUntil = nil
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.users[userID].PasswordHash = passwordHash
	return nil
}

func (m *memStore) ListUsers(_ context.Context, limit int) ([]model.User, error) {
	var users []model.User
	for _, user := range m.users {
		if len(users) >= limit {
			break
		}
		users = append(users, *user)
	}
	return users, nil
}

func (m *memStore) UpdateUserStatus(_ context.Context, userID, status string) error {
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (m *memStore) UpdateUserRole(_ context.Context, userID, role string) error {
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	return nil
}

func (m *memStore) PurgeExpiredTokens(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *memStore) GetTest(_ context.Context, testID string) (model.Test, error) {
	if test, ok := m.tests[testID]; ok {
		return test, nil
	}
	return model.Test{}, repository.ErrNotFound
}

func (m *memStore) CountAttempts(_ context.Context, testID, studentID string) (int, error) {
	count := 0
	for _, result := range m.results {
		if result.TestID == testID && result.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) GetQuestionsByIDs(_ context.Context, ids []string) ([]model.Question, error) {
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		question, ok := m.questions[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		ordered = append(ordered, question)
	}
	return ordered, nil
}

func (m *memStore) CreateTestResult(_ context.Context, result model.TestResult) error {
	m.results = append(m.results, result)
	return nil
}

func (m *memStore) BumpQuestionStats(_ context.Context, _ string, _ bool) {}

func (m *memStore) ListResultsByStudent(_ context.Context, studentID string, _ int) ([]model.TestResult, error) {
	var results []model.TestResult
	for _, result := range m.results {
		if result.StudentID == studentID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (m *memStore) GetResultAnswers(_ context.Context, resultID string) ([]model.Answer, error) {
	for _, result := range m.results {
		if result.ID == resultID {
			return result.Answers, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetDashboard(_ context.Context, studentID string) (repository.DashboardSummary, error) {
	var summary repository.DashboardSummary
	for _, result := range m.results {
		if result.StudentID == studentID {
			summary.TestsTaken++
		}
	}
	return summary, nil
}

type memMailer struct {
	verificationToken string
	resetToken        string
}

func (m *memMailer) SendVerification(_ context.Context, _, _, token string) error {
	m.verificationToken = token
	return nil
}

func (m *memMailer) SendWelcome(_ context.Context, _, _ string) error { return nil }

func (m *memMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.resetToken = token
	return nil
}

func (m *memMailer) SendAccountLocked(_ context.Context, _, _ string) error { return nil }

type testEnv struct {
	server *httptest.Server
	store  *memStore
	mailer *memMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	mailer := &memMailer{}
	issuer := auth.Issuer{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "bioplus-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	cfg := config.Config{RefreshTokenTTL: time.Hour}
	authSvc := service.NewAuthService(store, mailer, issuer)
	adminSvc := service.NewAdminService(store)
	testSvc := service.NewTestService(store)
	aiClient := ai.NewClient("", "", "", time.Second)
	limiter := ratelimit.New(nil, "auth:", 0, time.Minute)

	srv := NewServer(cfg, nil, authSvc, adminSvc, testSvc, issuer, aiClient, limiter)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: store, mailer: mailer}
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, env.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

// signupAndLogin walks the full activation flow and returns an access
// token plus the user id.
func (env *testEnv) signupAndLogin(t *testing.T, email string) (string, string) {
	t.Helper()
	resp, _ := env.do(t, http.MethodPost, "/auth/signup", "",
		fmt.Sprintf(`{"email":%q,"password":"correct-horse","firstName":"Ada"}`, email))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/auth/verify-email/"+env.mailer.verificationToken, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status %d", resp.StatusCode)
	}
	resp, body := env.do(t, http.MethodPost, "/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"correct-horse"}`, email))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	token, _ := body["accessToken"].(string)
	if token == "" {
		t.Fatal("no access token in login response")
	}
	user, _ := body["user"].(map[string]any)
	id, _ := user["id"].(string)
	return token, id
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/health", "", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health response: %d %v", resp.StatusCode, body)
	}
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "flow@example.com")

	resp, body := env.do(t, http.MethodGet, "/auth/me", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d", resp.StatusCode)
	}
	if body["email"] != "flow@example.com" || body["status"] != model.StatusActive {
		t.Fatalf("unexpected me response: %v", body)
	}
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "cookie@example.com")

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/auth/login",
		strings.NewReader(`{"email":"cookie@example.com","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("refresh cookie not set")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie flags wrong: %+v", cookie)
	}

	// The cookie alone is enough to refresh.
	refreshReq, _ := http.NewRequest(http.MethodPost, env.server.URL+"/auth/refresh-token", strings.NewReader("{}"))
	refreshReq.Header.Set("Content-Type", "application/json")
	refreshReq.AddCookie(cookie)
	refreshResp, err := http.DefaultClient.Do(refreshReq)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer refreshResp.Body.Close()
	if refreshResp.StatusCode != http.StatusOK {
		t.Fatalf("refresh via cookie status %d", refreshResp.StatusCode)
	}
}

func TestAuthRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/auth/me", "", "")
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "missing_token" {
		t.Fatalf("expected 401 missing_token, got %d %v", resp.StatusCode, body)
	}
	resp, body = env.do(t, http.MethodGet, "/auth/me", "not-a-jwt", "")
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "invalid_token" {
		t.Fatalf("expected 401 invalid_token, got %d %v", resp.StatusCode, body)
	}
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signupAndLogin(t, "student@example.com")

	resp, body := env.do(t, http.MethodGet, "/admin/users", token, "")
	if resp.StatusCode != http.StatusForbidden || body["error"] != "forbidden" {
		t.Fatalf("expected 403 forbidden, got %d %v", resp.StatusCode, body)
	}

	// Promote to admin out of band; admin routes open, owner routes stay shut.
	env.store.users[userID].Role = model.RoleAdmin
	resp, _ = env.do(t, http.MethodGet, "/admin/users", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin list users status %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPatch, "/owner/users/"+userID+"/role", token, `{"role":"admin"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("owner route must reject admin, got %d", resp.StatusCode)
	}
}

func TestSuspendedUserRejected(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signupAndLogin(t, "suspended@example.com")
	env.store.users[userID].Status = model.StatusSuspended

	resp, body := env.do(t, http.MethodGet, "/auth/me", token, "")
	if resp.StatusCode != http.StatusForbidden || body["error"] != "account_not_active" {
		t.Fatalf("expected 403 account_not_active, got %d %v", resp.StatusCode, body)
	}
}

func TestSubmitTestEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "taker@example.com")

	for i := 1; i <= 2; i++ {
		id := fmt.Sprintf("q%d", i)
		env.store.questions[id] = model.Question{
			ID:                 id,
			Options:            []string{"a", "b"},
			CorrectAnswerIndex: 0,
			Marks:              5,
		}
	}
	env.store.tests["t1"] = model.Test{
		ID:           "t1",
		QuestionIDs:  []string{"q1", "q2"},
		TotalMarks:   10,
		PassingMarks: 6,
		Published:    true,
		Active:       true,
	}

	resp, body := env.do(t, http.MethodPost, "/student/tests/submit", token,
		`{"testId":"t1","answers":[{"selectedAnswer":0,"timeSpent":10},{"selectedAnswer":1,"timeSpent":12}],"timeTaken":22}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %v", resp.StatusCode, body)
	}
	if body["score"] != 5.0 || body["percentage"] != 50.0 || body["status"] != "failed" {
		t.Fatalf("unexpected grading: %v", body)
	}

	resp, body = env.do(t, http.MethodPost, "/student/tests/submit", token,
		`{"testId":"t1","answers":[{"selectedAnswer":0,"timeSpent":10}],"timeTaken":10}`)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "malformed_submission" {
		t.Fatalf("expected 400 malformed_submission, got %d %v", resp.StatusCode, body)
	}
}

func TestAIUnavailableWithoutKey(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "curious@example.com")

	resp, body := env.do(t, http.MethodPost, "/ai/explain-concept", token, `{"concept":"osmosis"}`)
	if resp.StatusCode != http.StatusBadGateway || body["error"] != "ai_unavailable" {
		t.Fatalf("expected 502 ai_unavailable, got %d %v", resp.StatusCode, body)
	}
}

func TestUnknownEmailForgotPasswordIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/auth/forgot-password", "", `{"email":"ghost@example.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected generic 200, got %d %v", resp.StatusCode, body)
	}
}
