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

const catalogCacheTTL = 60 * time.Second

// CourseService handles catalog reads and instructor curriculum edits
type CourseService struct {
	courses CourseStore
	access  *AccessService
	cache   Cache
	logger  *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courses CourseStore, access *AccessService, cache Cache) *CourseService {
	return &CourseService{
		courses: courses,
		access:  access,
		cache:   cache,
		logger:  util.GetLogger(),
	}
}

// CourseDetail is a course shaped by the caller's access level:
// without full access, non-preview lectures carry no media URL.
type CourseDetail struct {
	Course   *models.Course     `json:"course"`
	Lectures []models.Lecture   `json:"lectures"`
	Access   models.AccessLevel `json:"access"`
}

// Catalog returns published courses, served from cache when warm
func (s *CourseService) Catalog(ctx context.Context) ([]models.Course, error) {
	ctx, span := util.StartSpan(ctx, "CourseService.Catalog")
	defer span.End()

	var cached []models.Course
	hit, err := s.cache.GetCatalog(ctx, &cached)
	if err != nil {
		s.logger.Warn("Catalog cache read failed", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	courses, err := s.courses.GetPublishedCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}

	if err := s.cache.SetCatalog(ctx, courses, catalogCacheTTL); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.Error(err))
	}

	return courses, nil
}

// Detail returns a course with its lectures shaped by access level
func (s *CourseService) Detail(ctx context.Context, userID, courseID int64) (*CourseDetail, error) {
	ctx, span := util.StartSpan(ctx, "CourseService.Detail")
	defer span.End()

	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound("course not found")
	}

	level, err := s.access.LevelFor(ctx, userID, course)
	if err != nil {
		return nil, err
	}

	lectures, err := s.courses.GetLecturesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lectures: %w", err)
	}
	if lectures == nil {
		lectures = []models.Lecture{}
	}

	if level != models.AccessFull {
		for i := range lectures {
			if !lectures[i].Preview {
				lectures[i].MediaURL = ""
			}
		}
	}

	return &CourseDetail{Course: course, Lectures: lectures, Access: level}, nil
}

// CreateCourseRequest carries instructor input for a new course
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"min=0"`
}

// Create creates an unpublished course owned by the instructor
func (s *CourseService) Create(ctx context.Context, userID int64, role string, req *CreateCourseRequest) (*models.Course, error) {
	if role != models.RoleInstructor {
		return nil, apperr.Forbidden("instructor role required")
	}

	course := &models.Course{
		InstructorID: userID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Published:    false,
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created",
		zap.Int64("course_id", course.ID),
		zap.Int64("instructor_id", userID))
	return course, nil
}

// Update edits course fields; owner only
func (s *CourseService) Update(ctx context.Context, userID, courseID int64, req *CreateCourseRequest) (*models.Course, error) {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Price = req.Price
	if err := s.courses.UpdateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// SetPublished flips catalog visibility; owner only
func (s *CourseService) SetPublished(ctx context.Context, userID, courseID int64, published bool) error {
	if _, err := s.ownedCourse(ctx, userID, courseID); err != nil {
		return err
	}

	if err := s.courses.SetCoursePublished(ctx, courseID, published); err != nil {
		return fmt.Errorf("failed to update publication flag: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// AddLectureRequest carries instructor input for a new lecture
type AddLectureRequest struct {
	Title           string `json:"title" binding:"required"`
	DurationSeconds int    `json:"duration_seconds" binding:"min=0"`
	Preview         bool   `json:"preview"`
	MediaURL        string `json:"media_url"`
}

// AddLecture appends a lecture to the course; owner only. Progress
// percentages recompute automatically since they derive from the live
// lecture count.
func (s *CourseService) AddLecture(ctx context.Context, userID, courseID int64, req *AddLectureRequest) (*models.Lecture, error) {
	if _, err := s.ownedCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}

	lecture := &models.Lecture{
		CourseID:        courseID,
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		Preview:         req.Preview,
		MediaURL:        req.MediaURL,
	}
	if err := s.courses.AddLecture(ctx, lecture); err != nil {
		return nil, fmt.Errorf("failed to add lecture: %w", err)
	}

	return lecture, nil
}

// RemoveLecture deletes a lecture from the course; owner only
func (s *CourseService) RemoveLecture(ctx context.Context, userID, courseID, lectureID int64) error {
	if _, err := s.ownedCourse(ctx, userID, courseID); err != nil {
		return err
	}

	removed, err := s.courses.DeleteLecture(ctx, courseID, lectureID)
	if err != nil {
		return fmt.Errorf("failed to delete lecture: %w", err)
	}
	if !removed {
		return apperr.NotFound("lecture not found")
	}
	return nil
}

// InstructorCourses lists all courses owned by the instructor,
// published or not
func (s *CourseService) InstructorCourses(ctx context.Context, userID int64, role string) ([]models.Course, error) {
	if role != models.RoleInstructor {
		return nil, apperr.Forbidden("instructor role required")
	}
	courses, err := s.courses.GetCoursesByInstructor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructor courses: %w", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// ownedCourse loads a course and enforces ownership. Absent courses and
// other instructors' unpublished courses both read as NotFound.
func (s *CourseService) ownedCourse(ctx context.Context, userID, courseID int64) (*models.Course, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound("course not found")
	}
	if course.InstructorID != userID {
		if !course.Published {
			return nil, apperr.NotFound("course not found")
		}
		return nil, apperr.Forbidden("not the course owner")
	}
	return course, nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
