package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/service"
	"github.com/lumora-hq/lumora-api/internal/utils"
)

// ContactHandler exposes CRM contact read endpoints.
type ContactHandler struct {
	service service.ContactService
	logger  zerolog.Logger
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(service service.ContactService, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger.With().Str("component", "contact_handler").Logger(),
	}
}

// Register wires contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ContactHandler) list(c *fiber.Ctx) error {
	filter := dto.ContactFilter{
		Tag: strings.TrimSpace(c.Query("tag")),
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	filter.Page = page

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	filter.PageSize = pageSize

	if listID, err := parseQueryInt(c, "list_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid list id")
	} else if listID > 0 {
		id := uint(listID)
		filter.ListID = &id
	}

	contacts, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list contacts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list contacts")
	}

	return utils.SendSuccess(c, "contacts loaded", fiber.Map{
		"contacts": contacts,
		"total":    total,
	})
}
