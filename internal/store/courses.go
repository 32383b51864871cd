package store

import (
	"context"
	"database/sql"

	"course-service/internal/models"
)

// CreateCourse inserts a new course
func (s *Store) CreateCourse(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (instructor_id, title, description, price, published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, course, query,
		course.InstructorID, course.Title, course.Description, course.Price, course.Published)
}

// GetCourseByID retrieves a course by ID, nil if absent
func (s *Store) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	err := s.db.GetContext(ctx, &course, "SELECT * FROM courses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetPublishedCourses retrieves the catalog
func (s *Store) GetPublishedCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.SelectContext(ctx, &courses,
		"SELECT * FROM courses WHERE published = true ORDER BY created_at DESC")
	return courses, err
}

// GetCoursesByInstructor retrieves all courses owned by an instructor
func (s *Store) GetCoursesByInstructor(ctx context.Context, instructorID int64) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.SelectContext(ctx, &courses,
		"SELECT * FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC", instructorID)
	return courses, err
}

// UpdateCourse updates mutable course fields
func (s *Store) UpdateCourse(ctx context.Context, course *models.Course) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE courses SET title = $1, description = $2, price = $3, updated_at = NOW() WHERE id = $4",
		course.Title, course.Description, course.Price, course.ID)
	return err
}

// SetCoursePublished flips the publication flag
func (s *Store) SetCoursePublished(ctx context.Context, courseID int64, published bool) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE courses SET published = $1, updated_at = NOW() WHERE id = $2",
		published, courseID)
	return err
}

// AddLecture appends a lecture at the next position
func (s *Store) AddLecture(ctx context.Context, lecture *models.Lecture) error {
	query := `
		INSERT INTO lectures (course_id, position, title, duration_seconds, preview, media_url)
		VALUES ($1,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM lectures WHERE course_id = $1),
			$2, $3, $4, $5)
		RETURNING id, position`

	return s.db.GetContext(ctx, lecture, query,
		lecture.CourseID, lecture.Title, lecture.DurationSeconds, lecture.Preview, lecture.MediaURL)
}

// DeleteLecture removes a lecture from a course
func (s *Store) DeleteLecture(ctx context.Context, courseID, lectureID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM lectures WHERE id = $1 AND course_id = $2", lectureID, courseID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetLecturesByCourse retrieves lectures in curriculum order
func (s *Store) GetLecturesByCourse(ctx context.Context, courseID int64) ([]models.Lecture, error) {
	var lectures []models.Lecture
	err := s.db.SelectContext(ctx, &lectures,
		"SELECT * FROM lectures WHERE course_id = $1 ORDER BY position", courseID)
	return lectures, err
}

// GetLecture retrieves a lecture scoped to its course, nil if absent
func (s *Store) GetLecture(ctx context.Context, courseID, lectureID int64) (*models.Lecture, error) {
	var lecture models.Lecture
	err := s.db.GetContext(ctx, &lecture,
		"SELECT * FROM lectures WHERE id = $1 AND course_id = $2", lectureID, courseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

// CountLectures returns the live lecture count for a course
func (s *Store) CountLectures(ctx context.Context, courseID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM lectures WHERE course_id = $1", courseID)
	return count, err
}

// CourseHasPreview reports whether any lecture is flagged preview
func (s *Store) CourseHasPreview(ctx context.Context, courseID int64) (bool, error) {
	var has bool
	err := s.db.GetContext(ctx, &has,
		"SELECT EXISTS(SELECT 1 FROM lectures WHERE course_id = $1 AND preview)", courseID)
	return has, err
}
