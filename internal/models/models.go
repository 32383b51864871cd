package models

import "time"

// User represents an account holder
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// User roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// Course represents a video course in the catalog
type Course struct {
	ID           int64     `db:"id" json:"id"`
	InstructorID int64     `db:"instructor_id" json:"instructor_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        int64     `db:"price" json:"price"`
	Published    bool      `db:"published" json:"published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Lecture is an ordered child of a course
type Lecture struct {
	ID              int64  `db:"id" json:"id"`
	CourseID        int64  `db:"course_id" json:"course_id"`
	Position        int    `db:"position" json:"position"`
	Title           string `db:"title" json:"title"`
	DurationSeconds int    `db:"duration_seconds" json:"duration_seconds"`
	Preview         bool   `db:"preview" json:"preview"`
	MediaURL        string `db:"media_url" json:"media_url,omitempty"`
}

// Purchase links a user to a course with a payment lifecycle
type Purchase struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	CourseID         int64     `db:"course_id" json:"course_id"`
	Status           string    `db:"status" json:"status"`
	PaymentSessionID string    `db:"payment_session_id" json:"payment_session_id,omitempty"`
	Amount           int64     `db:"amount" json:"amount"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Purchase statuses
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Progress is the per-(user, course) progress record
type Progress struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LectureProgress is one completion entry under a Progress record
type LectureProgress struct {
	ProgressID  int64      `db:"progress_id" json:"-"`
	LectureID   int64      `db:"lecture_id" json:"lecture_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// AccessLevel is the computed content-visibility tier for (user, course)
type AccessLevel string

const (
	AccessNone    AccessLevel = "no-access"
	AccessPreview AccessLevel = "preview-only"
	AccessFull    AccessLevel = "full-access"
)

// CompletionPercent derives the progress percentage from the live
// lecture count. Never stored; curriculum edits move it retroactively.
func CompletionPercent(completed, totalLectures int) int {
	if totalLectures <= 0 {
		return 0
	}
	return int((float64(completed)*100/float64(totalLectures)) + 0.5)
}
