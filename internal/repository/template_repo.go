package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// EmailTemplateRepository defines data operations for stored email templates.
type EmailTemplateRepository interface {
	GetByID(ctx context.Context, id uint) (models.EmailTemplate, error)
	List(ctx context.Context) ([]models.EmailTemplate, error)
	Create(ctx context.Context, template *models.EmailTemplate) error
}

type emailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository instantiates the repository.
func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func (r *emailTemplateRepository) GetByID(ctx context.Context, id uint) (models.EmailTemplate, error) {
	var template models.EmailTemplate
	if err := r.db.WithContext(ctx).First(&template, id).Error; err != nil {
		return models.EmailTemplate{}, err
	}

	return template, nil
}

func (r *emailTemplateRepository) List(ctx context.Context) ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error; err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *emailTemplateRepository) Create(ctx context.Context, template *models.EmailTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}
