package store

import (
	"context"
	"database/sql"

	"course-service/internal/models"
)

// UpsertPendingPurchase creates or refreshes the pending purchase for
// (user, course) in one statement. The partial unique index on
// (user_id, course_id) WHERE status <> 'failed' makes two concurrent
// checkouts converge on a single row; a row that already reached
// 'completed' is excluded from the update, so the statement returns
// no row and the caller reports a duplicate purchase.
func (s *Store) UpsertPendingPurchase(ctx context.Context, purchase *models.Purchase) (bool, error) {
	query := `
		INSERT INTO purchases (user_id, course_id, status, payment_session_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, course_id) WHERE status <> 'failed'
		DO UPDATE SET payment_session_id = EXCLUDED.payment_session_id,
		              amount = EXCLUDED.amount,
		              updated_at = NOW()
		WHERE purchases.status = 'pending'
		RETURNING id, status, created_at, updated_at`

	err := s.db.GetContext(ctx, purchase, query,
		purchase.UserID, purchase.CourseID, purchase.Status, purchase.PaymentSessionID, purchase.Amount)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetPurchaseBySessionID retrieves a purchase by its external payment
// session reference, nil if absent
func (s *Store) GetPurchaseBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase,
		"SELECT * FROM purchases WHERE payment_session_id = $1", sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetCompletedPurchase retrieves the completed purchase for (user, course),
// nil if none exists
func (s *Store) GetCompletedPurchase(ctx context.Context, userID, courseID int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase,
		"SELECT * FROM purchases WHERE user_id = $1 AND course_id = $2 AND status = 'completed'",
		userID, courseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CompletePurchaseBySession transitions pending -> completed with a
// compare-and-set on status. Returns the updated row, or nil when no
// pending row matched (already completed, failed, or unknown session).
func (s *Store) CompletePurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase, `
		UPDATE purchases SET status = 'completed', updated_at = NOW()
		WHERE payment_session_id = $1 AND status = 'pending'
		RETURNING *`, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FailPurchaseBySession transitions pending -> failed with a
// compare-and-set on status. Returns the updated row, nil when no
// pending row matched.
func (s *Store) FailPurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase, `
		UPDATE purchases SET status = 'failed', updated_at = NOW()
		WHERE payment_session_id = $1 AND status = 'pending'
		RETURNING *`, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CreateCompletedPurchase records a zero-amount purchase directly in
// completed state (free-course enrollment). Returns false when a live
// purchase already exists for the pair.
func (s *Store) CreateCompletedPurchase(ctx context.Context, purchase *models.Purchase) (bool, error) {
	query := `
		INSERT INTO purchases (user_id, course_id, status, payment_session_id, amount)
		VALUES ($1, $2, 'completed', $3, $4)
		ON CONFLICT (user_id, course_id) WHERE status <> 'failed' DO NOTHING
		RETURNING id, status, created_at, updated_at`

	err := s.db.GetContext(ctx, purchase, query,
		purchase.UserID, purchase.CourseID, purchase.PaymentSessionID, purchase.Amount)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetPurchasesByUser retrieves a user's purchases, newest first
func (s *Store) GetPurchasesByUser(ctx context.Context, userID int64) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return purchases, err
}
