package store

import (
	"context"
	"database/sql"
	"time"

	"course-service/internal/models"
)

// EnsureProgress creates the progress record for (user, course) if it
// does not exist and returns it. Insert-or-ignore on the unique
// (user_id, course_id) index, so concurrent callers converge on one row.
func (s *Store) EnsureProgress(ctx context.Context, userID, courseID int64) (*models.Progress, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING`, userID, courseID)
	if err != nil {
		return nil, err
	}

	var progress models.Progress
	err = s.db.GetContext(ctx, &progress,
		"SELECT * FROM progress WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetProgress retrieves the progress record for (user, course), nil if absent
func (s *Store) GetProgress(ctx context.Context, userID, courseID int64) (*models.Progress, error) {
	var progress models.Progress
	err := s.db.GetContext(ctx, &progress,
		"SELECT * FROM progress WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// MarkLectureCompleted upserts a completion entry. Re-marking keeps the
// first completion timestamp and leaves the parent record untouched, so
// the call is idempotent. Returns true when this call flipped the entry
// to completed.
func (s *Store) MarkLectureCompleted(ctx context.Context, progressID, lectureID int64, at time.Time) (bool, error) {
	var firstCompletion bool
	err := s.db.GetContext(ctx, &firstCompletion, `
		INSERT INTO lecture_progress (progress_id, lecture_id, completed, completed_at)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (progress_id, lecture_id)
		DO UPDATE SET completed = true,
		              completed_at = COALESCE(lecture_progress.completed_at, EXCLUDED.completed_at)
		RETURNING (xmax = 0) AS first_completion`, progressID, lectureID, at)
	if err != nil {
		return false, err
	}
	if !firstCompletion {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE progress SET updated_at = NOW() WHERE id = $1", progressID)
	return true, err
}

// GetLectureProgress retrieves completion entries for a progress record,
// restricted to lectures still present in the course
func (s *Store) GetLectureProgress(ctx context.Context, progressID int64) ([]models.LectureProgress, error) {
	var entries []models.LectureProgress
	err := s.db.SelectContext(ctx, &entries, `
		SELECT lp.progress_id, lp.lecture_id, lp.completed, lp.completed_at
		FROM lecture_progress lp
		JOIN lectures l ON l.id = lp.lecture_id
		WHERE lp.progress_id = $1
		ORDER BY l.position`, progressID)
	return entries, err
}

// CountCompletedLectures counts completed entries that still reference
// live lectures, so removed lectures drop out of the percentage.
func (s *Store) CountCompletedLectures(ctx context.Context, progressID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM lecture_progress lp
		JOIN lectures l ON l.id = lp.lecture_id
		WHERE lp.progress_id = $1 AND lp.completed`, progressID)
	return count, err
}
