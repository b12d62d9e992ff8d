package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumora-hq/lumora-api/internal/models"
)

func TestMarkVideoCompletedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	first := time.Now().Add(-time.Hour)
	require.NoError(t, repo.MarkVideoCompleted(context.Background(), 5, 1, first))
	require.NoError(t, repo.MarkVideoCompleted(context.Background(), 5, 1, time.Now()))

	var count int64
	require.NoError(t, db.Model(&models.VideoProgress{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	completed, err := repo.CountCompletedVideos(context.Background(), 5, []uint{1})
	require.NoError(t, err)
	require.Equal(t, int64(1), completed)
}

func TestCountCompletedVideosScopesToStudentAndCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	now := time.Now()
	require.NoError(t, repo.MarkVideoCompleted(context.Background(), 5, 1, now))
	require.NoError(t, repo.MarkVideoCompleted(context.Background(), 5, 99, now))
	require.NoError(t, repo.MarkVideoCompleted(context.Background(), 6, 2, now))

	completed, err := repo.CountCompletedVideos(context.Background(), 5, []uint{1, 2})
	require.NoError(t, err)
	require.Equal(t, int64(1), completed)

	none, err := repo.CountCompletedVideos(context.Background(), 5, nil)
	require.NoError(t, err)
	require.Zero(t, none)
}

func TestListVideosOrdersByPosition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	require.NoError(t, db.Create(&models.Video{CourseID: 10, Title: "Outro", Position: 2}).Error)
	require.NoError(t, db.Create(&models.Video{CourseID: 10, Title: "Intro", Position: 1}).Error)
	require.NoError(t, db.Create(&models.Video{CourseID: 11, Title: "Other course", Position: 1}).Error)

	videos, err := repo.ListVideos(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	require.Equal(t, "Intro", videos[0].Title)
	require.Equal(t, "Outro", videos[1].Title)
}
