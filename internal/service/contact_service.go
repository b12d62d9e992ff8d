package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// ContactService exposes CRM contact reads. Mutations happen through workflow
// actions.
type ContactService interface {
	List(ctx context.Context, filter dto.ContactFilter) ([]dto.ContactResponse, int64, error)
}

type contactService struct {
	contacts  repository.ContactRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewContactService constructs a ContactService instance.
func NewContactService(contactRepo repository.ContactRepository, validate *validator.Validate, logger zerolog.Logger) ContactService {
	return &contactService{
		contacts:  contactRepo,
		validator: validate,
		logger:    logger.With().Str("component", "contact_service").Logger(),
	}
}

func (s *contactService) List(ctx context.Context, filter dto.ContactFilter) ([]dto.ContactResponse, int64, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, 0, err
	}

	contacts, total, err := s.contacts.List(ctx, repository.ContactFilter{
		Tag:      filter.Tag,
		ListID:   filter.ListID,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewContactResponseSlice(contacts), total, nil
}
