package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"bioplus/api/internal/auth"
	"bioplus/api/internal/crypto"
	"bioplus/api/internal/model"
	"bioplus/api/internal/repository"
)

const (
	MinPasswordLength = 8
	LockThreshold     = 5
	LockDuration      = 2 * time.Hour
	VerificationTTL   = 24 * time.Hour
	ResetTTL          = time.Hour
)

// UserStore is the persistence surface the auth service needs. The pgx
// store implements it; tests substitute an in-memory fake.
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	SetVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
	MarkEmailVerified(ctx context.Context, userID string) error
	IncrementLoginAttempts(ctx context.Context, userID string, threshold int, lockUntil time.Time) (int, error)
	RecordLogin(ctx context.Context, userID string, now time.Time) error
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
	ResetPassword(ctx context.Context, userID, passwordHash string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Mailer delivers lifecycle emails. Every call through notify is
// best-effort; direct calls (password reset) surface failures.
type Mailer interface {
	SendVerification(ctx context.Context, to, firstName, token string) error
	SendWelcome(ctx context.Context, to, firstName string) error
	SendPasswordReset(ctx context.Context, to, firstName, token string) error
	SendAccountLocked(ctx context.Context, to, firstName string) error
}

type AuthService struct {
	store  UserStore
	mailer Mailer
	issuer auth.Issuer
	now    func() time.Time
}

func NewAuthService(store UserStore, mailer Mailer, issuer auth.Issuer) *AuthService {
	return &AuthService{
		store:  store,
		mailer: mailer,
		issuer: issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Grade     string
}

// Signup creates a pending_verification account and sends the
// verification email best-effort. The weak-password check runs before any
// persistence.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (model.User, error) {
	email := normalizeEmail(input.Email)

	if len(input.Password) < MinPasswordLength {
		return model.User{}, ErrWeakPassword
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return model.User{}, err
	}

	role := input.Role
	if role != model.RoleAdmin {
		role = model.RoleStudent
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		Status:       model.StatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if grade := strings.TrimSpace(input.Grade); grade != "" {
		user.Grade = &grade
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, err
	}

	token, err := s.issueVerificationToken(ctx, user.ID, now)
	if err != nil {
		return model.User{}, err
	}

	s.notify(func() error { return s.mailer.SendVerification(ctx, user.Email, user.FirstName, token) },
		"verification email", user.Email)

	return user, nil
}

// VerifyEmail activates the account matching the presented token's digest
// and logs the user in with a fresh token pair.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (model.User, TokenPair, error) {
	now := s.now()
	user, err := s.store.GetUserByVerificationToken(ctx, crypto.HashToken(rawToken), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidOrExpiredToken
		}
		return model.User{}, TokenPair{}, err
	}

	if err := s.store.MarkEmailVerified(ctx, user.ID); err != nil {
		return model.User{}, TokenPair{}, err
	}
	user.EmailVerified = true
	user.Status = model.StatusActive
	user.VerificationTokenHash = nil
	user.VerificationExpires = nil

	s.notify(func() error { return s.mailer.SendWelcome(ctx, user.Email, user.FirstName) },
		"welcome email", user.Email)

	pair, err := s.issueTokens(ctx, user.ID, now)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// ResendVerification issues a fresh verification token. Unlike signup the
// delivery failure is surfaced, since sending is the whole point here.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := s.issueVerificationToken(ctx, user.ID, s.now())
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return ErrEmailDelivery
	}
	if err := s.mailer.SendVerification(ctx, user.Email, user.FirstName, token); err != nil {
		log.Printf("verification email to %s failed: %v", user.Email, err)
		return ErrEmailDelivery
	}
	return nil
}

// Login checks the lockout window strictly before the password so a
// locked account never reveals whether the password was right. Failed
// attempts are counted atomically at the store.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	now := s.now()
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}

	if user.Locked(now) {
		s.notify(func() error { return s.mailer.SendAccountLocked(ctx, user.Email, user.FirstName) },
			"account locked email", user.Email)
		return model.User{}, TokenPair{}, ErrAccountLocked
	}

	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		attempts, incErr := s.store.IncrementLoginAttempts(ctx, user.ID, LockThreshold, now.Add(LockDuration))
		if incErr != nil {
			return model.User{}, TokenPair{}, incErr
		}
		if attempts >= LockThreshold {
			s.notify(func() error { return s.mailer.SendAccountLocked(ctx, user.Email, user.FirstName) },
				"account locked email", user.Email)
		}
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return model.User{}, TokenPair{}, ErrEmailNotVerified
	}
	if user.Status != model.StatusActive {
		return model.User{}, TokenPair{}, ErrAccountNotActive
	}

	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		return model.User{}, TokenPair{}, err
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	pair, err := s.issueTokens(ctx, user.ID, now)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates the token pair. The stored digest is overwritten in the
// same statement that persists the new one, so the old refresh token is
// never valid alongside its successor.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (TokenPair, error) {
	claims, err := s.issuer.Verify(rawRefreshToken, true)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}

	now := s.now()
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != crypto.HashToken(rawRefreshToken) {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if user.RefreshTokenExpires == nil || user.RefreshTokenExpires.Before(now) {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user.ID, now)
}

// Logout clears the stored refresh token. Calling it on an already
// logged-out account is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.store.ClearRefreshToken(ctx, userID)
}

// ForgotPassword always reports success to the caller whether or not the
// email exists. When delivery fails the token is rolled back so a dead
// token never lingers on the record.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := crypto.NewVerificationToken()
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.store.SetResetToken(ctx, user.ID, crypto.HashToken(token), now.Add(ResetTTL)); err != nil {
		return err
	}

	var sendErr error
	if s.mailer == nil {
		sendErr = ErrEmailDelivery
	} else {
		sendErr = s.mailer.SendPasswordReset(ctx, user.Email, user.FirstName, token)
	}
	if sendErr != nil {
		log.Printf("password reset email to %s failed: %v", user.Email, sendErr)
		if clearErr := s.store.ClearResetToken(ctx, user.ID); clearErr != nil {
			log.Printf("reset token rollback for %s failed: %v", user.Email, clearErr)
		}
		return ErrEmailDelivery
	}
	return nil
}

// ResetPassword installs a new password for the account matching the
// token digest, clearing the reset token and any lockout state.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.store.GetUserByResetToken(ctx, crypto.HashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.ResetPassword(ctx, user.ID, hash)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := crypto.CheckPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user.ID, hash)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) issueVerificationToken(ctx context.Context, userID string, now time.Time) (string, error) {
	token, err := crypto.NewVerificationToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SetVerificationToken(ctx, userID, crypto.HashToken(token), now.Add(VerificationTTL)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID string, now time.Time) (TokenPair, error) {
	access, err := s.issuer.AccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issuer.RefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.StoreRefreshToken(ctx, userID, crypto.HashToken(refresh), now.Add(s.issuer.RefreshTTL)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) notify(send func() error, what, email string) {
	if s.mailer == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("%s to %s failed: %v", what, email, err)
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
