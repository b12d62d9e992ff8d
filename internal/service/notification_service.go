package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// NotificationService persists internal notifications and fans them out over
// NATS when a connection is configured.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, audience string, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewNotificationService constructs a notification service. natsConn may be nil.
func NewNotificationService(repo repository.NotificationRepository, natsConn *nats.Conn, subject string, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.NotificationResponse{}, errors.New("notification message empty after sanitization")
	}

	notification := models.Notification{
		Audience: payload.Audience,
		Type:     payload.Type,
		Message:  message,
		Metadata: payload.Metadata,
	}

	if err := s.repo.Create(ctx, &notification); err != nil {
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(notification)

	if s.nats != nil && s.natsSubject != "" {
		encoded, err := json.Marshal(response)
		if err == nil {
			if err := s.nats.Publish(s.natsSubject, encoded); err != nil {
				s.logger.Warn().Err(err).Msg("nats publish failed")
			}
		}
	}

	s.logger.Info().Uint("notification_id", notification.ID).Str("type", notification.Type).Msg("notification published")

	return response, nil
}

func (s *notificationService) List(ctx context.Context, audience string, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.List(ctx, audience, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, dto.NewNotificationResponse(notification))
	}

	return responses, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}
