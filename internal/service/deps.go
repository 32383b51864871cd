package service

import (
	"context"
	"time"

	"course-service/internal/models"
)

// CourseStore is the course/lecture persistence surface the services
// need. Satisfied by *store.Store; narrowed here so tests can fake it.
type CourseStore interface {
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetPublishedCourses(ctx context.Context) ([]models.Course, error)
	GetCoursesByInstructor(ctx context.Context, instructorID int64) ([]models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	SetCoursePublished(ctx context.Context, courseID int64, published bool) error
	AddLecture(ctx context.Context, lecture *models.Lecture) error
	DeleteLecture(ctx context.Context, courseID, lectureID int64) (bool, error)
	GetLecturesByCourse(ctx context.Context, courseID int64) ([]models.Lecture, error)
	GetLecture(ctx context.Context, courseID, lectureID int64) (*models.Lecture, error)
	CountLectures(ctx context.Context, courseID int64) (int, error)
	CourseHasPreview(ctx context.Context, courseID int64) (bool, error)
}

// PurchaseStore is the purchase persistence surface
type PurchaseStore interface {
	UpsertPendingPurchase(ctx context.Context, purchase *models.Purchase) (bool, error)
	GetPurchaseBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	GetCompletedPurchase(ctx context.Context, userID, courseID int64) (*models.Purchase, error)
	CompletePurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error)
	FailPurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error)
	CreateCompletedPurchase(ctx context.Context, purchase *models.Purchase) (bool, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]models.Purchase, error)
}

// ProgressStore is the progress persistence surface
type ProgressStore interface {
	EnsureProgress(ctx context.Context, userID, courseID int64) (*models.Progress, error)
	GetProgress(ctx context.Context, userID, courseID int64) (*models.Progress, error)
	MarkLectureCompleted(ctx context.Context, progressID, lectureID int64, at time.Time) (bool, error)
	GetLectureProgress(ctx context.Context, progressID int64) ([]models.LectureProgress, error)
	CountCompletedLectures(ctx context.Context, progressID int64) (int, error)
}

// UserStore is the account persistence surface
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	DeleteUser(ctx context.Context, userID int64) error
}

// Cache is the Redis surface used by the services. The cache is
// advisory; the database remains authoritative on every decision.
type Cache interface {
	GetAccessLevel(ctx context.Context, userID, courseID int64) (string, error)
	SetAccessLevel(ctx context.Context, userID, courseID int64, level string, ttl time.Duration) error
	InvalidateAccessLevel(ctx context.Context, userID, courseID int64) error
	ClaimConfirmation(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	GetCatalog(ctx context.Context, dest interface{}) (bool, error)
	SetCatalog(ctx context.Context, catalog interface{}, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
}

// PaymentSession is the collaborator's handle for a checkout attempt
type PaymentSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Confirmation is the verified payload of a payment confirmation
type Confirmation struct {
	SessionID string `json:"session_id"`
	Paid      bool   `json:"paid"`
}

// PaymentProvider is the external payment collaborator
type PaymentProvider interface {
	CreateSession(ctx context.Context, userID, courseID, amount int64) (*PaymentSession, error)
	VerifyConfirmation(payload []byte, signature string) (*Confirmation, error)
}

// Publisher is the domain-event publishing surface, satisfied by
// *broker.EventPublisher
type Publisher interface {
	PublishCheckoutInitiated(ctx context.Context, event *models.CheckoutInitiatedEvent) error
	PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error
	PublishPurchaseFailed(ctx context.Context, event *models.PurchaseFailedEvent) error
	PublishLectureCompleted(ctx context.Context, event *models.LectureCompletedEvent) error
}
