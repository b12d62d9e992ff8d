package dto

import (
	"time"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// NotificationCreateRequest publishes an internal notification.
type NotificationCreateRequest struct {
	Audience string         `json:"audience" validate:"required"`
	Type     string         `json:"type" validate:"required"`
	Message  string         `json:"message" validate:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NotificationResponse is a persisted notification.
type NotificationResponse struct {
	ID        uint           `json:"id"`
	Audience  string         `json:"audience"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewNotificationResponse maps a notification model to its API representation.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		Audience:  notification.Audience,
		Type:      notification.Type,
		Message:   notification.Message,
		Read:      notification.Read,
		Metadata:  notification.Metadata,
		CreatedAt: notification.CreatedAt,
	}
}
