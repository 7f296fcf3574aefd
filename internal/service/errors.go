package service

import "errors"

// Business-rule failures recovered at the request boundary and mapped to
// 4xx responses. Anything else propagates to the generic 500 handler.
var (
	ErrDuplicateEmail        = errors.New("email_already_registered")
	ErrWeakPassword          = errors.New("weak_password")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrAccountLocked         = errors.New("account_locked")
	ErrEmailNotVerified      = errors.New("email_not_verified")
	ErrAccountNotActive      = errors.New("account_not_active")
	ErrAlreadyVerified       = errors.New("email_already_verified")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
	ErrInvalidRefreshToken   = errors.New("invalid_refresh_token")
	ErrEmailDelivery         = errors.New("email_send_failed")
	ErrUserNotFound          = errors.New("user_not_found")
	ErrInvalidStatus         = errors.New("invalid_status_transition")
	ErrInvalidRole           = errors.New("invalid_role")

	ErrTestNotFound          = errors.New("test_not_found")
	ErrMalformedSubmission   = errors.New("malformed_submission")
	ErrMaxAttemptsExceeded   = errors.New("max_attempts_exceeded")
	ErrQuestionSetIncomplete = errors.New("question_set_incomplete")
)
