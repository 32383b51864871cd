package models

import "time"

// Event types
const (
	EventTypeCheckoutInitiated = "CHECKOUT_INITIATED"
	EventTypePurchaseCompleted = "PURCHASE_COMPLETED"
	EventTypePurchaseFailed    = "PURCHASE_FAILED"
	EventTypeLectureCompleted  = "LECTURE_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutInitiatedEvent published when a checkout session is opened
type CheckoutInitiatedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	UserID     int64  `json:"user_id"`
	CourseID   int64  `json:"course_id"`
	Amount     int64  `json:"amount"`
	SessionID  string `json:"session_id"`
}

// PurchaseCompletedEvent published when a purchase transitions to completed
type PurchaseCompletedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	UserID     int64  `json:"user_id"`
	CourseID   int64  `json:"course_id"`
	Amount     int64  `json:"amount"`
	SessionID  string `json:"session_id"`
}

// PurchaseFailedEvent published when the collaborator reports non-payment
type PurchaseFailedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	UserID     int64  `json:"user_id"`
	CourseID   int64  `json:"course_id"`
	SessionID  string `json:"session_id"`
	Reason     string `json:"reason"`
}

// LectureCompletedEvent published when a lecture is first marked complete
type LectureCompletedEvent struct {
	BaseEvent
	UserID    int64 `json:"user_id"`
	CourseID  int64 `json:"course_id"`
	LectureID int64 `json:"lecture_id"`
	Percent   int   `json:"percent"`
}
