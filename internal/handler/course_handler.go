package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/service"
	"github.com/lumora-hq/lumora-api/internal/utils"
)

// CourseHandler exposes course progress and certificate endpoints.
type CourseHandler struct {
	progress     service.VideoProgressService
	completion   service.CourseCompletionService
	certificates service.CertificateService
	logger       zerolog.Logger
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(
	progress service.VideoProgressService,
	completion service.CourseCompletionService,
	certificates service.CertificateService,
	logger zerolog.Logger,
) *CourseHandler {
	return &CourseHandler{
		progress:     progress,
		completion:   completion,
		certificates: certificates,
		logger:       logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register wires course routes.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Post("/videos/:id/progress", h.markProgress)
	router.Get("/:id/progress", h.listProgress)
	router.Post("/:id/evaluate", h.evaluate)
	router.Get("/certificates", h.listCertificates)
}

func (h *CourseHandler) markProgress(c *fiber.Ctx) error {
	videoID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid video id")
	}

	var payload dto.VideoProgressRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.VideoID = videoID
	if payload.StudentID == 0 {
		payload.StudentID = userIDFromContext(c)
	}

	response, err := h.progress.MarkCompleted(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrVideoNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("video_id", videoID).Msg("failed to record video progress")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record video progress")
		}
	}

	return utils.SendSuccess(c, "video progress recorded", response)
}

func (h *CourseHandler) listProgress(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	studentID := userIDFromContext(c)
	if value, err := parseQueryInt(c, "student_id"); err == nil && value > 0 {
		studentID = uint(value)
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student id required")
	}

	response, err := h.progress.ListProgress(c.Context(), courseID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Msg("failed to list progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list progress")
	}

	return utils.SendSuccess(c, "progress loaded", response)
}

func (h *CourseHandler) evaluate(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	studentID := userIDFromContext(c)
	if value, err := parseQueryInt(c, "student_id"); err == nil && value > 0 {
		studentID = uint(value)
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student id required")
	}

	response, err := h.completion.Evaluate(c.Context(), courseID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Msg("failed to evaluate completion")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate completion")
	}

	return utils.SendSuccess(c, "completion evaluated", response)
}

func (h *CourseHandler) listCertificates(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if value, err := parseQueryInt(c, "student_id"); err == nil && value > 0 {
		studentID = uint(value)
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student id required")
	}

	certificates, err := h.certificates.ListByStudent(c.Context(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to list certificates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list certificates")
	}

	return utils.SendSuccess(c, "certificates loaded", certificates)
}
