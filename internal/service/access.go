package service

import (
	"context"
	"time"

	"course-service/internal/apperr"
	"course-service/internal/models"
	"course-service/internal/util"

	"go.uber.org/zap"
)

const accessCacheTTL = 30 * time.Second

// AccessService decides the content-visibility tier for (user, course).
// Read-only; the only state it touches is the advisory Redis cache.
type AccessService struct {
	courses   CourseStore
	purchases PurchaseStore
	cache     Cache
	logger    *zap.Logger
}

// NewAccessService creates a new access service
func NewAccessService(courses CourseStore, purchases PurchaseStore, cache Cache) *AccessService {
	return &AccessService{
		courses:   courses,
		purchases: purchases,
		cache:     cache,
		logger:    util.GetLogger(),
	}
}

// Level computes the access level for a user (0 = anonymous) and a
// course. An unpublished course is reported as absent to anyone but its
// owner, never as a permission error.
func (s *AccessService) Level(ctx context.Context, userID, courseID int64) (models.AccessLevel, error) {
	ctx, span := util.StartSpan(ctx, "AccessService.Level")
	defer span.End()

	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if course == nil {
		return "", apperr.NotFound("course not found")
	}

	return s.LevelFor(ctx, userID, course)
}

// LevelFor computes the access level against an already loaded course
func (s *AccessService) LevelFor(ctx context.Context, userID int64, course *models.Course) (models.AccessLevel, error) {
	if !course.Published && userID != course.InstructorID {
		return "", apperr.NotFound("course not found")
	}

	if userID == course.InstructorID && userID != 0 {
		util.AccessChecksTotal.WithLabelValues(string(models.AccessFull)).Inc()
		return models.AccessFull, nil
	}

	if userID != 0 {
		if cached, err := s.cache.GetAccessLevel(ctx, userID, course.ID); err != nil {
			s.logger.Warn("Access cache read failed",
				zap.Int64("user_id", userID),
				zap.Int64("course_id", course.ID),
				zap.Error(err))
		} else if cached != "" {
			util.AccessCacheHitsTotal.Inc()
			util.AccessChecksTotal.WithLabelValues(cached).Inc()
			return models.AccessLevel(cached), nil
		}

		purchase, err := s.purchases.GetCompletedPurchase(ctx, userID, course.ID)
		if err != nil {
			return "", err
		}
		if purchase != nil {
			s.cacheLevel(ctx, userID, course.ID, models.AccessFull)
			util.AccessChecksTotal.WithLabelValues(string(models.AccessFull)).Inc()
			return models.AccessFull, nil
		}
	}

	level := models.AccessNone
	hasPreview, err := s.courses.CourseHasPreview(ctx, course.ID)
	if err != nil {
		return "", err
	}
	if hasPreview {
		level = models.AccessPreview
	}

	if userID != 0 {
		s.cacheLevel(ctx, userID, course.ID, level)
	}
	util.AccessChecksTotal.WithLabelValues(string(level)).Inc()
	return level, nil
}

func (s *AccessService) cacheLevel(ctx context.Context, userID, courseID int64, level models.AccessLevel) {
	if err := s.cache.SetAccessLevel(ctx, userID, courseID, string(level), accessCacheTTL); err != nil {
		s.logger.Warn("Access cache write failed",
			zap.Int64("user_id", userID),
			zap.Int64("course_id", courseID),
			zap.Error(err))
	}
}
