package worker

import (
	"context"
	"log"

	"course-service/internal/broker"
	"course-service/internal/models"
	"course-service/internal/service"
	"course-service/internal/util"

	"go.uber.org/zap"
)

// EnrollmentWorker consumes purchase events and settles the unlock side
// effects: the progress record and the access cache. The webhook path
// already does both synchronously; the worker re-applies them so a
// crash between the status CAS and the unlock cannot strand a buyer.
type EnrollmentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	progress     service.ProgressStore
	cache        service.Cache
	logger       *zap.Logger
}

// NewEnrollmentWorker creates a new enrollment worker
func NewEnrollmentWorker(
	consumer *broker.Consumer,
	progress service.ProgressStore,
	cache service.Cache,
) *EnrollmentWorker {
	w := &EnrollmentWorker{
		consumer: consumer,
		progress: progress,
		cache:    cache,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPurchaseCompleted(w.handlePurchaseCompleted)
	eventHandler.OnPurchaseFailed(w.handlePurchaseFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *EnrollmentWorker) Start(ctx context.Context) error {
	log.Println("Starting enrollment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *EnrollmentWorker) Stop() error {
	log.Println("Stopping enrollment worker...")
	return w.consumer.Close()
}

func (w *EnrollmentWorker) handlePurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	if _, err := w.progress.EnsureProgress(ctx, event.UserID, event.CourseID); err != nil {
		w.logger.Error("Failed to ensure progress record",
			zap.Int64("purchase_id", event.PurchaseID),
			zap.Error(err))
		return err
	}

	if err := w.cache.InvalidateAccessLevel(ctx, event.UserID, event.CourseID); err != nil {
		w.logger.Warn("Failed to invalidate access cache",
			zap.Int64("purchase_id", event.PurchaseID),
			zap.Error(err))
	}

	w.logger.Info("Enrollment settled",
		zap.Int64("purchase_id", event.PurchaseID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("course_id", event.CourseID))
	return nil
}

func (w *EnrollmentWorker) handlePurchaseFailed(ctx context.Context, event *models.PurchaseFailedEvent) error {
	w.logger.Warn("Purchase failed",
		zap.Int64("purchase_id", event.PurchaseID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("course_id", event.CourseID),
		zap.String("reason", event.Reason))
	return nil
}
