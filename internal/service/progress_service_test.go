package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

func progressFixture() (*fakeCourseRepo, *fakeCompletion, VideoProgressService) {
	courses := newFakeCourseRepo()
	courses.courses[10] = models.Course{ID: 10, Title: "Email Automation 101"}
	courses.videos = []models.Video{
		{ID: 1, CourseID: 10, Title: "Intro", Position: 0},
		{ID: 2, CourseID: 10, Title: "Segments", Position: 1},
	}

	completion := &fakeCompletion{response: dto.CompletionResponse{CourseID: 10, StudentID: 5, Evaluated: true}}
	svc := NewVideoProgressService(courses, completion, testValidator(), testLogger())
	return courses, completion, svc
}

func TestMarkCompletedEvaluatesCompletion(t *testing.T) {
	courses, completion, svc := progressFixture()

	response, err := svc.MarkCompleted(context.Background(), dto.VideoProgressRequest{VideoID: 1, StudentID: 5})
	require.NoError(t, err)
	require.True(t, response.Evaluated)
	require.Equal(t, 1, completion.calls)
	require.True(t, courses.progress[1])
}

func TestMarkCompletedUnknownVideo(t *testing.T) {
	_, completion, svc := progressFixture()

	_, err := svc.MarkCompleted(context.Background(), dto.VideoProgressRequest{VideoID: 99, StudentID: 5})
	require.ErrorIs(t, err, ErrVideoNotFound)
	require.Zero(t, completion.calls)
}

func TestListProgressReportsPerVideoState(t *testing.T) {
	courses, _, svc := progressFixture()
	courses.progress[2] = true

	response, err := svc.ListProgress(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, response.Videos, 2)
	require.False(t, response.Videos[0].Completed)
	require.True(t, response.Videos[1].Completed)
	require.Equal(t, "Segments", response.Videos[1].Title)
}

func TestListProgressUnknownCourse(t *testing.T) {
	_, _, svc := progressFixture()

	_, err := svc.ListProgress(context.Background(), 404, 5)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
