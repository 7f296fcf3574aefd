package model

import "time"

// Account status values. The only legal transitions are
// pending_verification -> active (email verification) and
// active <-> suspended (admin action).
const (
	StatusPendingVerification = "pending_verification"
	StatusActive              = "active"
	StatusSuspended           = "suspended"
	StatusInactive            = "inactive"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Grade        *string
	Status       string

	EmailVerified bool
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time

	VerificationTokenHash *string
	VerificationExpires   *time.Time
	ResetTokenHash        *string
	ResetExpires          *time.Time

	// Single active refresh token per user, stored as a sha256 digest.
	// Rotation overwrites both columns.
	RefreshTokenHash    *string
	RefreshTokenExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

type Subject struct {
	ID          string
	Name        string
	Grade       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Chapter struct {
	ID        string
	SubjectID string
	Title     string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Note struct {
	ID        string
	SubjectID string
	ChapterID *string
	Title     string
	Content   string
	Grade     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Test struct {
	ID           string
	Title        string
	Description  string
	SubjectID    string
	ChapterID    *string
	Grade        string
	QuestionIDs  []string
	TotalMarks   float64
	PassingMarks float64
	Duration     int // minutes
	Type         string
	MaxAttempts  int
	Published    bool
	Active       bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Question struct {
	ID                 string
	Text               string
	Options            []string
	CorrectAnswerIndex int
	Explanation        string
	SubjectID          *string
	ChapterID          *string
	Grade              string
	Marks              float64
	NegativeMarking    float64 // non-negative deduction value
	Active             bool
	ImportBatchID      *string
	TimesUsed          int
	CorrectAttempts    int
	TotalAttempts      int
	CreatedBy          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Answer struct {
	QuestionID     string
	SelectedAnswer int
	IsCorrect      bool
	MarksAwarded   float64
	TimeSpent      int // seconds
}

// TestResult is immutable once created; retries append new rows.
type TestResult struct {
	ID            string
	TestID        string
	StudentID     string
	Answers       []Answer
	Score         float64
	TotalMarks    float64
	Percentage    float64
	TimeTaken     int // seconds
	Status        string
	AttemptNumber int
	StartedAt     time.Time
	CompletedAt   time.Time
	CreatedAt     time.Time
}

type Bookmark struct {
	ID        string
	StudentID string
	ItemType  string
	ItemID    string
	CreatedAt time.Time
}
