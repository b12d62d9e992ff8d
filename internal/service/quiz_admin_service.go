package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// ErrQuizSlotTaken indicates the (course, video) slot already has a quiz.
var ErrQuizSlotTaken = errors.New("a quiz already exists for this course and video")

// QuizAdminService manages quiz authoring.
type QuizAdminService interface {
	Create(ctx context.Context, req dto.QuizCreateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, id uint) (dto.QuizResponse, error)
}

type quizAdminService struct {
	quizzes   repository.QuizRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuizAdminService constructs a QuizAdminService instance.
func NewQuizAdminService(quizRepo repository.QuizRepository, courseRepo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) QuizAdminService {
	return &quizAdminService{
		quizzes:   quizRepo,
		courses:   courseRepo,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_admin_service").Logger(),
	}
}

func (s *quizAdminService) Create(ctx context.Context, req dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrCourseNotFound
		}
		return dto.QuizResponse{}, err
	}

	questions := make([]models.QuizQuestion, 0, len(req.Questions))
	for index, input := range req.Questions {
		if input.Type == models.QuestionTypeMultipleChoice && len(input.Options) < 2 {
			return dto.QuizResponse{}, fmt.Errorf("question %d: multiple choice requires at least two options", index+1)
		}

		question := models.QuizQuestion{
			Prompt:        input.Prompt,
			Type:          input.Type,
			CorrectAnswer: input.CorrectAnswer,
			Points:        input.Points,
			Position:      index,
		}

		if len(input.Options) > 0 {
			encoded, err := json.Marshal(input.Options)
			if err != nil {
				return dto.QuizResponse{}, err
			}
			question.Options = datatypes.JSON(encoded)
		}

		questions = append(questions, question)
	}

	quiz := models.Quiz{
		CourseID:     req.CourseID,
		VideoID:      req.VideoID,
		Title:        req.Title,
		PassingScore: req.PassingScore,
		Required:     req.Required,
		Questions:    questions,
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.QuizResponse{}, ErrQuizSlotTaken
		}
		return dto.QuizResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("course_id", quiz.CourseID).Msg("quiz created")

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizAdminService) Get(ctx context.Context, id uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}
