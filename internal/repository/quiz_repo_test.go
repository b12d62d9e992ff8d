package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/models"
)

func TestQuizGetByIDPreloadsOrderedQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	quiz := models.Quiz{
		CourseID:     10,
		Title:        "Fundamentals",
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{Prompt: "Second", Type: models.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 1, Position: 1},
			{Prompt: "First", Type: models.QuestionTypeShortAnswer, CorrectAnswer: "go", Points: 1, Position: 0},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &quiz))

	loaded, err := repo.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	require.Equal(t, "First", loaded.Questions[0].Prompt)
	require.Equal(t, "Second", loaded.Questions[1].Prompt)
}

func TestQuizUniquePerCourseAndVideo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	videoID := uint(3)
	first := models.Quiz{CourseID: 10, VideoID: &videoID, Title: "Video check", PassingScore: 70}
	require.NoError(t, repo.Create(context.Background(), &first))

	duplicate := models.Quiz{CourseID: 10, VideoID: &videoID, Title: "Another", PassingScore: 70}
	err := repo.Create(context.Background(), &duplicate)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	otherVideo := uint(4)
	other := models.Quiz{CourseID: 10, VideoID: &otherVideo, Title: "Fine", PassingScore: 70}
	require.NoError(t, repo.Create(context.Background(), &other))
}

func TestCountPassedQuizzesDeduplicatesAttempts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	now := time.Now()
	attempts := []models.QuizAttempt{
		{QuizID: 1, StudentID: 5, Score: 50, Passed: false, CompletedAt: now.Add(-3 * time.Hour)},
		{QuizID: 1, StudentID: 5, Score: 80, Passed: true, CompletedAt: now.Add(-2 * time.Hour)},
		{QuizID: 1, StudentID: 5, Score: 90, Passed: true, CompletedAt: now.Add(-time.Hour)},
		{QuizID: 2, StudentID: 5, Score: 40, Passed: false, CompletedAt: now},
		{QuizID: 1, StudentID: 6, Score: 95, Passed: true, CompletedAt: now},
	}
	for i := range attempts {
		require.NoError(t, repo.CreateAttempt(context.Background(), &attempts[i]))
	}

	passed, err := repo.CountPassedQuizzes(context.Background(), 5, []uint{1, 2})
	require.NoError(t, err)
	require.Equal(t, int64(1), passed)

	latest, err := repo.LatestAttempt(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Equal(t, 90, latest.Score)
}
