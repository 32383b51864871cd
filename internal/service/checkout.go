package service

import (
	"context"
	"fmt"
	"time"

	"course-service/internal/apperr"
	"course-service/internal/models"
	"course-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const confirmationClaimTTL = 24 * time.Hour

// CheckoutService handles purchase initiation and confirmation
type CheckoutService struct {
	courses   CourseStore
	purchases PurchaseStore
	progress  ProgressStore
	payment   PaymentProvider
	cache     Cache
	publisher Publisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	courses CourseStore,
	purchases PurchaseStore,
	progress ProgressStore,
	payment PaymentProvider,
	cache Cache,
	publisher Publisher,
) *CheckoutService {
	return &CheckoutService{
		courses:   courses,
		purchases: purchases,
		progress:  progress,
		payment:   payment,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CheckoutResponse is returned to the buyer after initiation
type CheckoutResponse struct {
	PurchaseID  int64  `json:"purchase_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// InitiateCheckout starts a purchase attempt. The external session is
// created before anything is persisted, so a collaborator failure
// leaves no orphaned row; the pending row itself is an atomic upsert
// that loses to an already-completed purchase.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, userID, courseID int64) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.InitiateCheckout")
	defer span.End()

	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil || (!course.Published && course.InstructorID != userID) {
		util.CheckoutsFailedTotal.WithLabelValues("course_not_found").Inc()
		return nil, apperr.NotFound("course not found")
	}
	if course.InstructorID == userID {
		util.CheckoutsFailedTotal.WithLabelValues("own_course").Inc()
		return nil, apperr.BadRequest("instructors cannot purchase their own course")
	}

	existing, err := s.purchases.GetCompletedPurchase(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing purchase: %w", err)
	}
	if existing != nil {
		util.CheckoutsFailedTotal.WithLabelValues("already_purchased").Inc()
		return nil, apperr.Conflict("course already purchased")
	}

	if course.Price == 0 {
		return s.enrollFree(ctx, userID, course)
	}

	session, err := s.payment.CreateSession(ctx, userID, courseID, course.Price)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("provider_error").Inc()
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "payment provider failed", err)
	}

	purchase := &models.Purchase{
		UserID:           userID,
		CourseID:         courseID,
		Status:           models.PurchaseStatusPending,
		PaymentSessionID: session.SessionID,
		Amount:           course.Price,
	}

	live, err := s.purchases.UpsertPendingPurchase(ctx, purchase)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist pending purchase: %w", err)
	}
	if !live {
		// A concurrent confirmation completed the purchase first.
		util.CheckoutsFailedTotal.WithLabelValues("already_purchased").Inc()
		return nil, apperr.Conflict("course already purchased")
	}

	util.CheckoutsInitiatedTotal.Inc()
	s.logger.Info("Checkout initiated",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("user_id", userID),
		zap.Int64("course_id", courseID))

	event := &models.CheckoutInitiatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeCheckoutInitiated),
		PurchaseID: purchase.ID,
		UserID:     userID,
		CourseID:   courseID,
		Amount:     course.Price,
		SessionID:  session.SessionID,
	}
	if err := s.publisher.PublishCheckoutInitiated(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutInitiated event", zap.Error(err))
	}

	return &CheckoutResponse{
		PurchaseID:  purchase.ID,
		Status:      purchase.Status,
		RedirectURL: session.RedirectURL,
	}, nil
}

// enrollFree records a zero-amount purchase directly as completed; no
// payment session is involved
func (s *CheckoutService) enrollFree(ctx context.Context, userID int64, course *models.Course) (*CheckoutResponse, error) {
	purchase := &models.Purchase{
		UserID:           userID,
		CourseID:         course.ID,
		PaymentSessionID: "free-" + uuid.New().String(),
		Amount:           0,
	}

	created, err := s.purchases.CreateCompletedPurchase(ctx, purchase)
	if err != nil {
		return nil, fmt.Errorf("failed to record free enrollment: %w", err)
	}
	if !created {
		util.CheckoutsFailedTotal.WithLabelValues("already_purchased").Inc()
		return nil, apperr.Conflict("course already purchased")
	}

	s.unlock(ctx, purchase)
	util.PurchasesCompletedTotal.Inc()
	s.logger.Info("Free enrollment completed",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("user_id", userID),
		zap.Int64("course_id", course.ID))

	return &CheckoutResponse{
		PurchaseID: purchase.ID,
		Status:     models.PurchaseStatusCompleted,
	}, nil
}

// ConfirmPurchase handles the collaborator's webhook. Verification
// happens before any state is touched; the pending -> completed
// transition is a single compare-and-set, so replays are no-ops.
func (s *CheckoutService) ConfirmPurchase(ctx context.Context, payload []byte, signature string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ConfirmPurchase")
	defer span.End()

	conf, err := s.payment.VerifyConfirmation(payload, signature)
	if err != nil {
		util.ConfirmationsRejectedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}

	if !conf.Paid {
		return s.confirmFailed(ctx, conf.SessionID)
	}

	// Advisory replay fast path; the CAS below stays authoritative.
	claimed, err := s.cache.ClaimConfirmation(ctx, conf.SessionID, confirmationClaimTTL)
	if err != nil {
		s.logger.Warn("Confirmation claim failed, relying on database",
			zap.String("session_id", conf.SessionID), zap.Error(err))
	} else if !claimed {
		existing, err := s.purchases.GetPurchaseBySessionID(ctx, conf.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load purchase: %w", err)
		}
		if existing != nil && existing.Status == models.PurchaseStatusCompleted {
			util.ConfirmationsReplayedTotal.Inc()
			return existing, nil
		}
	}

	purchase, err := s.purchases.CompletePurchaseBySession(ctx, conf.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}
	if purchase == nil {
		existing, err := s.purchases.GetPurchaseBySessionID(ctx, conf.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load purchase: %w", err)
		}
		if existing == nil {
			util.ConfirmationsRejectedTotal.WithLabelValues("unknown_session").Inc()
			return nil, apperr.NotFound("unknown payment session")
		}
		if existing.Status == models.PurchaseStatusCompleted {
			util.ConfirmationsReplayedTotal.Inc()
			return existing, nil
		}
		util.ConfirmationsRejectedTotal.WithLabelValues("not_pending").Inc()
		return nil, apperr.Conflict("purchase is not pending")
	}

	s.unlock(ctx, purchase)
	util.PurchasesCompletedTotal.Inc()
	s.logger.Info("Purchase completed",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("user_id", purchase.UserID),
		zap.Int64("course_id", purchase.CourseID))

	event := &models.PurchaseCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseCompleted),
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		CourseID:   purchase.CourseID,
		Amount:     purchase.Amount,
		SessionID:  purchase.PaymentSessionID,
	}
	if err := s.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseCompleted event", zap.Error(err))
	}

	return purchase, nil
}

// confirmFailed records a non-payment report from the collaborator
func (s *CheckoutService) confirmFailed(ctx context.Context, sessionID string) (*models.Purchase, error) {
	purchase, err := s.purchases.FailPurchaseBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark purchase failed: %w", err)
	}
	if purchase == nil {
		existing, err := s.purchases.GetPurchaseBySessionID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load purchase: %w", err)
		}
		if existing == nil {
			util.ConfirmationsRejectedTotal.WithLabelValues("unknown_session").Inc()
			return nil, apperr.NotFound("unknown payment session")
		}
		// Already failed or completed; report current state without a
		// second transition.
		return existing, nil
	}

	util.PurchasesFailedTotal.Inc()
	s.logger.Warn("Purchase failed",
		zap.Int64("purchase_id", purchase.ID),
		zap.String("session_id", sessionID))

	event := &models.PurchaseFailedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseFailed),
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		CourseID:   purchase.CourseID,
		SessionID:  sessionID,
		Reason:     "provider_reported_unpaid",
	}
	if err := s.publisher.PublishPurchaseFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseFailed event", zap.Error(err))
	}

	return purchase, nil
}

// unlock makes full access visible: ensure the progress record exists
// and drop the cached access decision
func (s *CheckoutService) unlock(ctx context.Context, purchase *models.Purchase) {
	if _, err := s.progress.EnsureProgress(ctx, purchase.UserID, purchase.CourseID); err != nil {
		s.logger.Error("Failed to ensure progress record",
			zap.Int64("purchase_id", purchase.ID),
			zap.Error(err))
	}
	if err := s.cache.InvalidateAccessLevel(ctx, purchase.UserID, purchase.CourseID); err != nil {
		s.logger.Warn("Failed to invalidate access cache",
			zap.Int64("purchase_id", purchase.ID),
			zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// GetPurchases lists a user's purchases
func (s *CheckoutService) GetPurchases(ctx context.Context, userID int64) ([]models.Purchase, error) {
	return s.purchases.GetPurchasesByUser(ctx, userID)
}
