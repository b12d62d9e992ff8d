package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

func quizAdminFixture() (QuizAdminService, *fakeQuizRepo, *fakeCourseRepo) {
	quizRepo := newFakeQuizRepo()
	courseRepo := newFakeCourseRepo()
	courseRepo.courses[10] = models.Course{ID: 10, Title: "Go for Marketers"}
	svc := NewQuizAdminService(quizRepo, courseRepo, testValidator(), testLogger())
	return svc, quizRepo, courseRepo
}

func TestQuizCreateAssignsPositions(t *testing.T) {
	svc, quizRepo, _ := quizAdminFixture()

	resp, err := svc.Create(context.Background(), dto.QuizCreateRequest{
		CourseID:     10,
		Title:        "Module check",
		PassingScore: 70,
		Questions: []dto.QuizQuestionInput{
			{Prompt: "Pick b", Type: models.QuestionTypeMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "b", Points: 1},
			{Prompt: "True?", Type: models.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	require.Equal(t, 0, resp.Questions[0].Position)
	require.Equal(t, 1, resp.Questions[1].Position)
	require.Equal(t, []string{"a", "b"}, resp.Questions[0].Options)

	stored := quizRepo.quizzes[resp.ID]
	require.Equal(t, uint(10), stored.CourseID)
}

func TestQuizCreateUnknownCourse(t *testing.T) {
	svc, _, _ := quizAdminFixture()

	_, err := svc.Create(context.Background(), dto.QuizCreateRequest{
		CourseID:     99,
		Title:        "Orphan",
		PassingScore: 70,
		Questions: []dto.QuizQuestionInput{
			{Prompt: "True?", Type: models.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 1},
		},
	})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestQuizCreateMultipleChoiceNeedsOptions(t *testing.T) {
	svc, _, _ := quizAdminFixture()

	_, err := svc.Create(context.Background(), dto.QuizCreateRequest{
		CourseID:     10,
		Title:        "Broken",
		PassingScore: 70,
		Questions: []dto.QuizQuestionInput{
			{Prompt: "Pick one", Type: models.QuestionTypeMultipleChoice, Options: []string{"only"}, CorrectAnswer: "only", Points: 1},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least two options")
}

func TestQuizGetHidesCorrectAnswers(t *testing.T) {
	svc, quizRepo, _ := quizAdminFixture()
	quizRepo.quizzes[1] = threeQuestionQuiz()

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, resp.Questions, 3)
	for _, question := range resp.Questions {
		require.NotEmpty(t, question.Prompt)
	}
}

func TestQuizGetUnknown(t *testing.T) {
	svc, _, _ := quizAdminFixture()

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrQuizNotFound)
}
