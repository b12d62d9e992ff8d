package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/service"
	"github.com/lumora-hq/lumora-api/internal/utils"
)

// QuizHandler exposes quiz authoring and submission endpoints.
type QuizHandler struct {
	grading service.QuizGradingService
	admin   service.QuizAdminService
	logger  zerolog.Logger
}

// NewQuizHandler constructs a quiz handler.
func NewQuizHandler(grading service.QuizGradingService, admin service.QuizAdminService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		grading: grading,
		admin:   admin,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register wires quiz routes.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/attempts", h.submit)
}

func (h *QuizHandler) create(c *fiber.Ctx) error {
	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.admin.Create(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		case errors.Is(err, service.ErrQuizSlotTaken):
			return utils.SendError(c, fiber.StatusConflict, "a quiz already exists for this course and video")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create quiz")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create quiz")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", response)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	response, err := h.admin.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("quiz_id", id).Msg("failed to load quiz")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load quiz")
	}

	return utils.SendSuccess(c, "quiz loaded", response)
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid quiz id")
	}

	var payload dto.QuizSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.QuizID = id
	if payload.StudentID == 0 {
		payload.StudentID = userIDFromContext(c)
	}

	response, err := h.grading.SubmitQuiz(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrQuizNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
		case errors.Is(err, service.ErrQuizEmpty):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "quiz has no questions")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("quiz_id", id).Msg("failed to grade submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", response)
}
