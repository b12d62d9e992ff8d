package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type fakeQuizRepo struct {
	quizzes  map[uint]models.Quiz
	attempts []models.QuizAttempt
	passed   int64
	nextID   uint
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: map[uint]models.Quiz{}, nextID: 1}
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, ok := r.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (r *fakeQuizRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	for _, quiz := range r.quizzes {
		if quiz.CourseID == courseID {
			quizzes = append(quizzes, quiz)
		}
	}
	return quizzes, nil
}

func (r *fakeQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	quiz.ID = r.nextID
	r.nextID++
	r.quizzes[quiz.ID] = *quiz
	return nil
}

func (r *fakeQuizRepo) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	attempt.ID = uint(len(r.attempts) + 1)
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *fakeQuizRepo) LatestAttempt(ctx context.Context, studentID, quizID uint) (models.QuizAttempt, error) {
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].StudentID == studentID && r.attempts[i].QuizID == quizID {
			return r.attempts[i], nil
		}
	}
	return models.QuizAttempt{}, gorm.ErrRecordNotFound
}

func (r *fakeQuizRepo) CountPassedQuizzes(ctx context.Context, studentID uint, quizIDs []uint) (int64, error) {
	return r.passed, nil
}

type fakeCompletion struct {
	response dto.CompletionResponse
	err      error
	calls    int
}

func (f *fakeCompletion) Evaluate(ctx context.Context, courseID, studentID uint) (dto.CompletionResponse, error) {
	f.calls++
	return f.response, f.err
}

func threeQuestionQuiz() models.Quiz {
	return models.Quiz{
		ID:           1,
		CourseID:     10,
		Title:        "Fundamentals check",
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{ID: 1, QuizID: 1, Prompt: "Pick b", Type: models.QuestionTypeMultipleChoice, CorrectAnswer: "b", Points: 1},
			{ID: 2, QuizID: 1, Prompt: "True?", Type: models.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 1},
			{ID: 3, QuizID: 1, Prompt: "Which ORM?", Type: models.QuestionTypeShortAnswer, CorrectAnswer: "gorm", Points: 1},
		},
	}
}

func TestSubmitQuizGradesAndRounds(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = threeQuestionQuiz()
	completion := &fakeCompletion{}

	svc := NewQuizGradingService(repo, completion, testValidator(), testLogger())

	resp, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "b", 2: "true", 3: "wrong"},
	})
	require.NoError(t, err)
	// 2 of 3 points: 66.67 rounds to 67, below the 70 threshold.
	require.Equal(t, 67, resp.Score)
	require.False(t, resp.Passed)
	require.Len(t, repo.attempts, 1)
	require.Equal(t, 67, repo.attempts[0].Score)
	require.Equal(t, 1, completion.calls)
}

func TestSubmitQuizPassAtThreshold(t *testing.T) {
	quiz := threeQuestionQuiz()
	quiz.PassingScore = 67
	repo := newFakeQuizRepo()
	repo.quizzes[1] = quiz
	svc := NewQuizGradingService(repo, &fakeCompletion{}, testValidator(), testLogger())

	resp, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "b", 2: "true"},
	})
	require.NoError(t, err)
	require.Equal(t, 67, resp.Score)
	require.True(t, resp.Passed)
}

func TestSubmitQuizWeightedPoints(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = models.Quiz{
		ID:           1,
		CourseID:     10,
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{ID: 1, CorrectAnswer: "a", Points: 3},
			{ID: 2, CorrectAnswer: "b", Points: 1},
		},
	}
	svc := NewQuizGradingService(repo, &fakeCompletion{}, testValidator(), testLogger())

	resp, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "a", 2: "x"},
	})
	require.NoError(t, err)
	require.Equal(t, 75, resp.Score)
	require.True(t, resp.Passed)
}

func TestSubmitQuizUnknownQuiz(t *testing.T) {
	svc := NewQuizGradingService(newFakeQuizRepo(), &fakeCompletion{}, testValidator(), testLogger())

	_, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    99,
		StudentID: 5,
		Answers:   map[uint]string{1: "a"},
	})
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitQuizEmptyQuiz(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = models.Quiz{ID: 1, CourseID: 10, PassingScore: 70}
	svc := NewQuizGradingService(repo, &fakeCompletion{}, testValidator(), testLogger())

	_, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "a"},
	})
	require.ErrorIs(t, err, ErrQuizEmpty)
}

func TestSubmitQuizAttachesCertificate(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = threeQuestionQuiz()
	completion := &fakeCompletion{response: dto.CompletionResponse{
		CertificateIssued: true,
		CertificateURL:    "https://cdn.example.com/cert.png",
	}}
	svc := NewQuizGradingService(repo, completion, testValidator(), testLogger())

	resp, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "b", 2: "true", 3: "gorm"},
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Score)
	require.True(t, resp.Passed)
	require.True(t, resp.CertificateIssued)
	require.Equal(t, "https://cdn.example.com/cert.png", resp.CertificateURL)
}

func TestSubmitQuizCompletionFailureKeepsAttempt(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = threeQuestionQuiz()
	completion := &fakeCompletion{err: gorm.ErrInvalidDB}
	svc := NewQuizGradingService(repo, completion, testValidator(), testLogger())

	resp, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{
		QuizID:    1,
		StudentID: 5,
		Answers:   map[uint]string{1: "b", 2: "true", 3: "gorm"},
	})
	require.NoError(t, err)
	require.True(t, resp.Passed)
	require.False(t, resp.CertificateIssued)
	require.Len(t, repo.attempts, 1)
}

func TestSubmitQuizValidatesInput(t *testing.T) {
	svc := NewQuizGradingService(newFakeQuizRepo(), &fakeCompletion{}, testValidator(), testLogger())

	_, err := svc.SubmitQuiz(context.Background(), dto.QuizSubmissionRequest{QuizID: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrQuizNotFound)
}
