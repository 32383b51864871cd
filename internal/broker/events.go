package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"course-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCheckoutInitiated publishes CheckoutInitiated event
func (ep *EventPublisher) PublishCheckoutInitiated(ctx context.Context, event *models.CheckoutInitiatedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPurchaseCompleted publishes PurchaseCompleted event
func (ep *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPurchaseFailed publishes PurchaseFailed event
func (ep *EventPublisher) PublishPurchaseFailed(ctx context.Context, event *models.PurchaseFailedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishLectureCompleted publishes LectureCompleted event
func (ep *EventPublisher) PublishLectureCompleted(ctx context.Context, event *models.LectureCompletedEvent) error {
	key := fmt.Sprintf("progress-%d-%d", event.UserID, event.CourseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming purchase events
type EventHandler struct {
	onPurchaseCompleted func(context.Context, *models.PurchaseCompletedEvent) error
	onPurchaseFailed    func(context.Context, *models.PurchaseFailedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPurchaseCompleted registers a handler for PurchaseCompleted events
func (eh *EventHandler) OnPurchaseCompleted(handler func(context.Context, *models.PurchaseCompletedEvent) error) {
	eh.onPurchaseCompleted = handler
}

// OnPurchaseFailed registers a handler for PurchaseFailed events
func (eh *EventHandler) OnPurchaseFailed(handler func(context.Context, *models.PurchaseFailedEvent) error) {
	eh.onPurchaseFailed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypePurchaseCompleted:
		if eh.onPurchaseCompleted != nil {
			var event models.PurchaseCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PurchaseCompleted event: %w", err)
			}
			return eh.onPurchaseCompleted(ctx, &event)
		}

	case models.EventTypePurchaseFailed:
		if eh.onPurchaseFailed != nil {
			var event models.PurchaseFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PurchaseFailed event: %w", err)
			}
			return eh.onPurchaseFailed(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
