package service

import (
	"context"
	"testing"

	"course-service/internal/apperr"
	"course-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCourseFixture() (*fakeCourseStore, *CourseService) {
	courses := newFakeCourseStore()
	access := NewAccessService(courses, newFakePurchaseStore(), newFakeCache())
	return courses, NewCourseService(courses, access, newFakeCache())
}

func TestCatalogListsOnlyPublished(t *testing.T) {
	courses, svc := newCourseFixture()
	seedCourse(t, courses, 10, true)
	seedCourse(t, courses, 10, false)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
}

func TestDetailStripsMediaWithoutFullAccess(t *testing.T) {
	courses, svc := newCourseFixture()
	course := seedCourse(t, courses, 10, true, true, false)

	lectures, _ := courses.GetLecturesByCourse(context.Background(), course.ID)
	for i := range lectures {
		lectures[i].MediaURL = "https://cdn.example.com/v.mp4"
	}
	courses.lectures[course.ID] = lectures

	detail, err := svc.Detail(context.Background(), 2, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessPreview, detail.Access)

	require.Len(t, detail.Lectures, 2)
	assert.NotEmpty(t, detail.Lectures[0].MediaURL, "preview lecture stays streamable")
	assert.Empty(t, detail.Lectures[1].MediaURL, "locked lecture exposes title/duration only")
	assert.NotEmpty(t, detail.Lectures[1].Title)
}

func TestDetailOwnerSeesEverything(t *testing.T) {
	courses, svc := newCourseFixture()
	course := seedCourse(t, courses, 10, false, false)
	courses.lectures[course.ID][0].MediaURL = "https://cdn.example.com/v.mp4"

	detail, err := svc.Detail(context.Background(), 10, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessFull, detail.Access)
	assert.NotEmpty(t, detail.Lectures[0].MediaURL)
}

func TestCreateRequiresInstructorRole(t *testing.T) {
	_, svc := newCourseFixture()

	_, err := svc.Create(context.Background(), 2, models.RoleStudent, &CreateCourseRequest{Title: "Nope"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	course, err := svc.Create(context.Background(), 10, models.RoleInstructor, &CreateCourseRequest{Title: "Yes", Price: 100})
	require.NoError(t, err)
	assert.False(t, course.Published, "new courses start unpublished")
}

func TestUpdateOwnerOnly(t *testing.T) {
	courses, svc := newCourseFixture()
	course := seedCourse(t, courses, 10, true)

	_, err := svc.Update(context.Background(), 11, course.ID, &CreateCourseRequest{Title: "Hijack"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := svc.Update(context.Background(), 10, course.ID, &CreateCourseRequest{Title: "New title", Price: 100})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
}

func TestUpdateUnpublishedHiddenFromStranger(t *testing.T) {
	courses, svc := newCourseFixture()
	course := seedCourse(t, courses, 10, false)

	_, err := svc.Update(context.Background(), 11, course.ID, &CreateCourseRequest{Title: "Hijack"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound),
		"someone else's unpublished course must read as absent")
}

func TestRemoveLecture(t *testing.T) {
	courses, svc := newCourseFixture()
	course := seedCourse(t, courses, 10, true, false)
	lectures, _ := courses.GetLecturesByCourse(context.Background(), course.ID)

	err := svc.RemoveLecture(context.Background(), 10, course.ID, lectures[0].ID)
	require.NoError(t, err)

	err = svc.RemoveLecture(context.Background(), 10, course.ID, lectures[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
