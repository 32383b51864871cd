package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"course-service/internal/apperr"
	"course-service/internal/models"
)

// In-memory fakes for the store, cache, payment, and publisher
// surfaces. They mimic the atomic semantics the SQL layer provides so
// the services can be exercised without a database.

type fakeCourseStore struct {
	mu       sync.Mutex
	courses  map[int64]*models.Course
	lectures map[int64][]models.Lecture
	nextID   int64
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses:  make(map[int64]*models.Course),
		lectures: make(map[int64][]models.Lecture),
	}
}

func (f *fakeCourseStore) CreateCourse(_ context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	course.ID = f.nextID
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *course
	return &cp, nil
}

func (f *fakeCourseStore) GetPublishedCourses(_ context.Context) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Course
	for _, c := range f.courses {
		if c.Published {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourseStore) GetCoursesByInstructor(_ context.Context, instructorID int64) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Course
	for _, c := range f.courses {
		if c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourseStore) UpdateCourse(_ context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.courses[course.ID]; ok {
		existing.Title = course.Title
		existing.Description = course.Description
		existing.Price = course.Price
		existing.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeCourseStore) SetCoursePublished(_ context.Context, courseID int64, published bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.courses[courseID]; ok {
		c.Published = published
	}
	return nil
}

func (f *fakeCourseStore) AddLecture(_ context.Context, lecture *models.Lecture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	lecture.ID = f.nextID
	lecture.Position = len(f.lectures[lecture.CourseID]) + 1
	f.lectures[lecture.CourseID] = append(f.lectures[lecture.CourseID], *lecture)
	return nil
}

func (f *fakeCourseStore) DeleteLecture(_ context.Context, courseID, lectureID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.lectures[courseID]
	for i, l := range list {
		if l.ID == lectureID {
			f.lectures[courseID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseStore) GetLecturesByCourse(_ context.Context, courseID int64) ([]models.Lecture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Lecture(nil), f.lectures[courseID]...), nil
}

func (f *fakeCourseStore) GetLecture(_ context.Context, courseID, lectureID int64) (*models.Lecture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lectures[courseID] {
		if l.ID == lectureID {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCourseStore) CountLectures(_ context.Context, courseID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lectures[courseID]), nil
}

func (f *fakeCourseStore) CourseHasPreview(_ context.Context, courseID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lectures[courseID] {
		if l.Preview {
			return true, nil
		}
	}
	return false, nil
}

type fakePurchaseStore struct {
	mu        sync.Mutex
	purchases []*models.Purchase
	nextID    int64
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{}
}

func (f *fakePurchaseStore) live(userID, courseID int64) *models.Purchase {
	for _, p := range f.purchases {
		if p.UserID == userID && p.CourseID == courseID && p.Status != models.PurchaseStatusFailed {
			return p
		}
	}
	return nil
}

func (f *fakePurchaseStore) bySession(sessionID string) *models.Purchase {
	for _, p := range f.purchases {
		if p.PaymentSessionID == sessionID {
			return p
		}
	}
	return nil
}

func (f *fakePurchaseStore) UpsertPendingPurchase(_ context.Context, purchase *models.Purchase) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.live(purchase.UserID, purchase.CourseID); existing != nil {
		if existing.Status == models.PurchaseStatusCompleted {
			return false, nil
		}
		existing.PaymentSessionID = purchase.PaymentSessionID
		existing.Amount = purchase.Amount
		existing.UpdatedAt = time.Now()
		*purchase = *existing
		return true, nil
	}
	f.nextID++
	purchase.ID = f.nextID
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt
	cp := *purchase
	f.purchases = append(f.purchases, &cp)
	return true, nil
}

func (f *fakePurchaseStore) GetPurchaseBySessionID(_ context.Context, sessionID string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.bySession(sessionID); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePurchaseStore) GetCompletedPurchase(_ context.Context, userID, courseID int64) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.purchases {
		if p.UserID == userID && p.CourseID == courseID && p.Status == models.PurchaseStatusCompleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePurchaseStore) CompletePurchaseBySession(_ context.Context, sessionID string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.bySession(sessionID)
	if p == nil || p.Status != models.PurchaseStatusPending {
		return nil, nil
	}
	p.Status = models.PurchaseStatusCompleted
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseStore) FailPurchaseBySession(_ context.Context, sessionID string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.bySession(sessionID)
	if p == nil || p.Status != models.PurchaseStatusPending {
		return nil, nil
	}
	p.Status = models.PurchaseStatusFailed
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseStore) CreateCompletedPurchase(_ context.Context, purchase *models.Purchase) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live(purchase.UserID, purchase.CourseID) != nil {
		return false, nil
	}
	f.nextID++
	purchase.ID = f.nextID
	purchase.Status = models.PurchaseStatusCompleted
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt
	cp := *purchase
	f.purchases = append(f.purchases, &cp)
	return true, nil
}

func (f *fakePurchaseStore) GetPurchasesByUser(_ context.Context, userID int64) ([]models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePurchaseStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.purchases)
}

type fakeProgressStore struct {
	mu      sync.Mutex
	records []*models.Progress
	entries map[int64]map[int64]*models.LectureProgress
	nextID  int64
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{entries: make(map[int64]map[int64]*models.LectureProgress)}
}

func (f *fakeProgressStore) EnsureProgress(_ context.Context, userID, courseID int64) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UserID == userID && r.CourseID == courseID {
			cp := *r
			return &cp, nil
		}
	}
	f.nextID++
	record := &models.Progress{
		ID:        f.nextID,
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.records = append(f.records, record)
	f.entries[record.ID] = make(map[int64]*models.LectureProgress)
	cp := *record
	return &cp, nil
}

func (f *fakeProgressStore) GetProgress(_ context.Context, userID, courseID int64) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UserID == userID && r.CourseID == courseID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProgressStore) MarkLectureCompleted(_ context.Context, progressID, lectureID int64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byLecture, ok := f.entries[progressID]
	if !ok {
		return false, fmt.Errorf("unknown progress record: %d", progressID)
	}
	if entry, ok := byLecture[lectureID]; ok && entry.Completed {
		return false, nil
	}
	byLecture[lectureID] = &models.LectureProgress{
		ProgressID:  progressID,
		LectureID:   lectureID,
		Completed:   true,
		CompletedAt: &at,
	}
	for _, r := range f.records {
		if r.ID == progressID {
			r.UpdatedAt = at
		}
	}
	return true, nil
}

func (f *fakeProgressStore) GetLectureProgress(_ context.Context, progressID int64) ([]models.LectureProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LectureProgress
	for _, e := range f.entries[progressID] {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeProgressStore) CountCompletedLectures(_ context.Context, progressID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.entries[progressID] {
		if e.Completed {
			count++
		}
	}
	return count, nil
}

type fakeCache struct {
	mu     sync.Mutex
	access map[string]string
	claims map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		access: make(map[string]string),
		claims: make(map[string]bool),
	}
}

func (f *fakeCache) GetAccessLevel(_ context.Context, userID, courseID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access[fmt.Sprintf("%d:%d", userID, courseID)], nil
}

func (f *fakeCache) SetAccessLevel(_ context.Context, userID, courseID int64, level string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access[fmt.Sprintf("%d:%d", userID, courseID)] = level
	return nil
}

func (f *fakeCache) InvalidateAccessLevel(_ context.Context, userID, courseID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.access, fmt.Sprintf("%d:%d", userID, courseID))
	return nil
}

func (f *fakeCache) ClaimConfirmation(_ context.Context, sessionID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims[sessionID] {
		return false, nil
	}
	f.claims[sessionID] = true
	return true, nil
}

func (f *fakeCache) GetCatalog(_ context.Context, _ interface{}) (bool, error) { return false, nil }
func (f *fakeCache) SetCatalog(_ context.Context, _ interface{}, _ time.Duration) error {
	return nil
}
func (f *fakeCache) InvalidateCatalog(_ context.Context) error { return nil }

type fakePayment struct {
	mu             sync.Mutex
	failSessions   bool
	sessionsOpened int
}

func (f *fakePayment) CreateSession(_ context.Context, userID, courseID, amount int64) (*PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSessions {
		return nil, apperr.UpstreamUnavailable("payment provider unreachable")
	}
	f.sessionsOpened++
	return &PaymentSession{
		SessionID:   fmt.Sprintf("sess-%d-%d-%d", userID, courseID, f.sessionsOpened),
		RedirectURL: "https://pay.example.com/checkout",
	}, nil
}

func (f *fakePayment) VerifyConfirmation(payload []byte, signature string) (*Confirmation, error) {
	if signature != "valid" {
		return nil, apperr.Unauthorized("invalid confirmation signature")
	}
	var conf Confirmation
	if err := json.Unmarshal(payload, &conf); err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "malformed confirmation payload", err)
	}
	return &conf, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	completed []*models.PurchaseCompletedEvent
	failed    []*models.PurchaseFailedEvent
	initiated []*models.CheckoutInitiatedEvent
	lectures  []*models.LectureCompletedEvent
}

func (f *fakePublisher) PublishCheckoutInitiated(_ context.Context, event *models.CheckoutInitiatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated = append(f.initiated, event)
	return nil
}

func (f *fakePublisher) PublishPurchaseCompleted(_ context.Context, event *models.PurchaseCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, event)
	return nil
}

func (f *fakePublisher) PublishPurchaseFailed(_ context.Context, event *models.PurchaseFailedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, event)
	return nil
}

func (f *fakePublisher) PublishLectureCompleted(_ context.Context, event *models.LectureCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lectures = append(f.lectures, event)
	return nil
}
