package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/observability"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty indicates the quiz has no questions and cannot be scored.
	ErrQuizEmpty = errors.New("quiz has no questions")
)

// QuizGradingService scores submitted answers and records attempts.
type QuizGradingService interface {
	SubmitQuiz(ctx context.Context, req dto.QuizSubmissionRequest) (dto.QuizAttemptResponse, error)
}

type quizGradingService struct {
	quizzes    repository.QuizRepository
	completion CourseCompletionService
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewQuizGradingService constructs a QuizGradingService instance.
func NewQuizGradingService(quizRepo repository.QuizRepository, completion CourseCompletionService, validate *validator.Validate, logger zerolog.Logger) QuizGradingService {
	return &quizGradingService{
		quizzes:    quizRepo,
		completion: completion,
		validator:  validate,
		logger:     logger.With().Str("component", "quiz_grading_service").Logger(),
		tracer:     otel.Tracer("github.com/lumora-hq/lumora-api/internal/service/grading"),
		now:        time.Now,
	}
}

// SubmitQuiz grades the submission against the current question bank. Answers
// match by exact string equality; a missing answer scores zero for that
// question. The attempt is insert-only, and completion evaluation runs before
// the response is returned so a synchronously issued certificate reaches the
// caller.
func (s *quizGradingService) SubmitQuiz(ctx context.Context, req dto.QuizSubmissionRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "quiz.submit", trace.WithAttributes(
		attribute.Int("quiz.id", int(req.QuizID)),
		attribute.Int("student.id", int(req.StudentID)),
	))
	defer span.End()

	quiz, err := s.quizzes.GetByID(ctx, req.QuizID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizAttemptResponse{}, ErrQuizNotFound
		}
		return dto.QuizAttemptResponse{}, err
	}

	if len(quiz.Questions) == 0 {
		span.SetStatus(codes.Error, "empty quiz")
		return dto.QuizAttemptResponse{}, ErrQuizEmpty
	}

	score, passed := grade(quiz, req.Answers)

	attempt := models.QuizAttempt{
		QuizID:      quiz.ID,
		StudentID:   req.StudentID,
		Answers:     encodeAnswers(req.Answers),
		Score:       score,
		Passed:      passed,
		CompletedAt: s.now(),
	}

	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt persistence failed")
		return dto.QuizAttemptResponse{}, err
	}

	result := "failed"
	if passed {
		result = "passed"
	}
	observability.QuizSubmissions().WithLabelValues(result).Inc()

	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Uint("student_id", req.StudentID).
		Int("score", score).
		Bool("passed", passed).
		Msg("quiz attempt graded")

	response := dto.QuizAttemptResponse{
		AttemptID:   attempt.ID,
		QuizID:      quiz.ID,
		StudentID:   req.StudentID,
		Score:       score,
		Passed:      passed,
		CompletedAt: attempt.CompletedAt,
	}

	completion, err := s.completion.Evaluate(ctx, quiz.CourseID, req.StudentID)
	if err != nil {
		// The attempt is already recorded; completion evaluation failing must
		// not void a graded submission. The next evaluation settles it.
		span.RecordError(err)
		s.logger.Warn().Err(err).Uint("course_id", quiz.CourseID).Msg("completion evaluation failed after attempt")
		return response, nil
	}

	response.CertificateIssued = completion.CertificateIssued
	response.CertificateURL = completion.CertificateURL

	return response, nil
}

// grade computes the rounded percentage score and the pass verdict. Every
// question's points count toward the total; only exact matches earn points.
func grade(quiz models.Quiz, answers map[uint]string) (int, bool) {
	earned := 0
	total := 0
	for _, question := range quiz.Questions {
		total += question.Points
		if submitted, ok := answers[question.ID]; ok && submitted == question.CorrectAnswer {
			earned += question.Points
		}
	}

	score := int(math.Round(100 * float64(earned) / float64(total)))

	return score, score >= quiz.PassingScore
}

func encodeAnswers(answers map[uint]string) datatypes.JSONMap {
	encoded := make(datatypes.JSONMap, len(answers))
	for questionID, answer := range answers {
		encoded[strconv.FormatUint(uint64(questionID), 10)] = answer
	}
	return encoded
}
