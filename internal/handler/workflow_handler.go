package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/service"
	"github.com/lumora-hq/lumora-api/internal/utils"
)

// WorkflowHandler exposes workflow administration and the event intake endpoint.
type WorkflowHandler struct {
	admin    service.WorkflowAdminService
	triggers service.WorkflowService
	logger   zerolog.Logger
}

// NewWorkflowHandler constructs a workflow handler.
func NewWorkflowHandler(admin service.WorkflowAdminService, triggers service.WorkflowService, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		admin:    admin,
		triggers: triggers,
		logger:   logger.With().Str("component", "workflow_handler").Logger(),
	}
}

// Register wires workflow routes.
func (h *WorkflowHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Get("/:id/executions", h.listExecutions)
	router.Post("/events", h.trigger)
}

func (h *WorkflowHandler) create(c *fiber.Ctx) error {
	var payload dto.WorkflowCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.admin.Create(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		if isSchemaError(err) {
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create workflow")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create workflow")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "workflow created", response)
}

func (h *WorkflowHandler) list(c *fiber.Ctx) error {
	status := strings.TrimSpace(c.Query("status"))

	workflows, err := h.admin.List(c.Context(), status)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list workflows")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list workflows")
	}

	return utils.SendSuccess(c, "workflows loaded", workflows)
}

func (h *WorkflowHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid workflow id")
	}

	response, err := h.admin.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "workflow not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("workflow_id", id).Msg("failed to load workflow")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load workflow")
	}

	return utils.SendSuccess(c, "workflow loaded", response)
}

func (h *WorkflowHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid workflow id")
	}

	var payload dto.WorkflowUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.admin.Update(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrWorkflowNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "workflow not found")
		case isSchemaError(err):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("workflow_id", id).Msg("failed to update workflow")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update workflow")
		}
	}

	return utils.SendSuccess(c, "workflow updated", response)
}

func (h *WorkflowHandler) listExecutions(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid workflow id")
	}

	executions, err := h.admin.ListExecutions(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "workflow not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("workflow_id", id).Msg("failed to list executions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list executions")
	}

	return utils.SendSuccess(c, "executions loaded", executions)
}

func (h *WorkflowHandler) trigger(c *fiber.Ctx) error {
	var payload dto.WorkflowTriggerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.triggers.Trigger(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrUnknownTrigger):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown event type")
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("event_type", payload.EventType).Msg("failed to process event")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to process event")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "event processed", response)
}
