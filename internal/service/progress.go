package service

import (
	"context"
	"fmt"
	"time"

	"course-service/internal/apperr"
	"course-service/internal/models"
	"course-service/internal/util"

	"go.uber.org/zap"
)

// ProgressService records lecture completions and derives the
// completion percentage from the live curriculum
type ProgressService struct {
	courses   CourseStore
	progress  ProgressStore
	access    *AccessService
	publisher Publisher
	logger    *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(
	courses CourseStore,
	progress ProgressStore,
	access *AccessService,
	publisher Publisher,
) *ProgressService {
	return &ProgressService{
		courses:   courses,
		progress:  progress,
		access:    access,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ProgressView is the caller-facing shape of a progress record
type ProgressView struct {
	CourseID       int64                    `json:"course_id"`
	Lectures       []models.LectureProgress `json:"lectures"`
	CompletedCount int                      `json:"completed_count"`
	TotalLectures  int                      `json:"total_lectures"`
	Percent        int                      `json:"percent"`
}

// MarkLectureComplete upserts a completion entry for the user. Marking
// an already-completed lecture again changes nothing.
func (s *ProgressService) MarkLectureComplete(ctx context.Context, userID, courseID, lectureID int64) (*ProgressView, error) {
	ctx, span := util.StartSpan(ctx, "ProgressService.MarkLectureComplete")
	defer span.End()

	if err := s.requireFullAccess(ctx, userID, courseID); err != nil {
		return nil, err
	}

	lecture, err := s.courses.GetLecture(ctx, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lecture: %w", err)
	}
	if lecture == nil {
		return nil, apperr.BadRequest("lecture does not belong to course")
	}

	record, err := s.progress.EnsureProgress(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure progress record: %w", err)
	}

	first, err := s.progress.MarkLectureCompleted(ctx, record.ID, lectureID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark lecture complete: %w", err)
	}

	view, err := s.buildView(ctx, record.ID, courseID)
	if err != nil {
		return nil, err
	}

	if first {
		util.LecturesCompletedTotal.Inc()
		s.logger.Info("Lecture completed",
			zap.Int64("user_id", userID),
			zap.Int64("course_id", courseID),
			zap.Int64("lecture_id", lectureID),
			zap.Int("percent", view.Percent))

		event := &models.LectureCompletedEvent{
			BaseEvent: newBaseEvent(models.EventTypeLectureCompleted),
			UserID:    userID,
			CourseID:  courseID,
			LectureID: lectureID,
			Percent:   view.Percent,
		}
		if err := s.publisher.PublishLectureCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish LectureCompleted event", zap.Error(err))
		}
	}

	return view, nil
}

// GetProgress returns the user's progress for a purchased course,
// creating the record lazily on first access
func (s *ProgressService) GetProgress(ctx context.Context, userID, courseID int64) (*ProgressView, error) {
	ctx, span := util.StartSpan(ctx, "ProgressService.GetProgress")
	defer span.End()

	if err := s.requireFullAccess(ctx, userID, courseID); err != nil {
		return nil, err
	}

	record, err := s.progress.EnsureProgress(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure progress record: %w", err)
	}

	return s.buildView(ctx, record.ID, courseID)
}

func (s *ProgressService) requireFullAccess(ctx context.Context, userID, courseID int64) error {
	if userID == 0 {
		return apperr.Unauthorized("authentication required")
	}

	level, err := s.access.Level(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if level != models.AccessFull {
		return apperr.Forbidden("course not purchased")
	}
	return nil
}

// buildView derives the percentage from the current lecture count, so
// curriculum edits move it without any new completion action
func (s *ProgressService) buildView(ctx context.Context, progressID, courseID int64) (*ProgressView, error) {
	entries, err := s.progress.GetLectureProgress(ctx, progressID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress entries: %w", err)
	}

	completed, err := s.progress.CountCompletedLectures(ctx, progressID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed lectures: %w", err)
	}

	total, err := s.courses.CountLectures(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lectures: %w", err)
	}

	if entries == nil {
		entries = []models.LectureProgress{}
	}

	return &ProgressView{
		CourseID:       courseID,
		Lectures:       entries,
		CompletedCount: completed,
		TotalLectures:  total,
		Percent:        models.CompletionPercent(completed, total),
	}, nil
}
