package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// WorkflowFilter narrows workflow listings.
type WorkflowFilter struct {
	Status      string
	TriggerType string
}

// WorkflowRepository defines data operations for workflows, executions and
// scheduled (delayed) steps.
type WorkflowRepository interface {
	GetByID(ctx context.Context, id uint) (models.Workflow, error)
	List(ctx context.Context, filter WorkflowFilter) ([]models.Workflow, error)
	ListActiveByTrigger(ctx context.Context, triggerType string) ([]models.Workflow, error)
	Create(ctx context.Context, workflow *models.Workflow) error
	Update(ctx context.Context, workflow *models.Workflow) error

	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	GetExecution(ctx context.Context, id uint) (models.WorkflowExecution, error)
	ListExecutions(ctx context.Context, workflowID uint) ([]models.WorkflowExecution, error)

	CreateScheduledStep(ctx context.Context, step *models.WorkflowScheduledStep) error
	DueScheduledSteps(ctx context.Context, now time.Time, limit int) ([]models.WorkflowScheduledStep, error)
	DeleteScheduledStep(ctx context.Context, id uint) error
}

type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository instantiates the repository.
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) GetByID(ctx context.Context, id uint) (models.Workflow, error) {
	var workflow models.Workflow
	if err := r.db.WithContext(ctx).First(&workflow, id).Error; err != nil {
		return models.Workflow{}, err
	}

	return workflow, nil
}

func (r *workflowRepository) List(ctx context.Context, filter WorkflowFilter) ([]models.Workflow, error) {
	query := r.db.WithContext(ctx).Model(&models.Workflow{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TriggerType != "" {
		query = query.Where("trigger_type = ?", filter.TriggerType)
	}

	var workflows []models.Workflow
	if err := query.Order("created_at DESC").Find(&workflows).Error; err != nil {
		return nil, err
	}

	return workflows, nil
}

func (r *workflowRepository) ListActiveByTrigger(ctx context.Context, triggerType string) ([]models.Workflow, error) {
	var workflows []models.Workflow
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.WorkflowStatusActive).
		Where("trigger_type = ?", triggerType).
		Order("id ASC").
		Find(&workflows).Error; err != nil {
		return nil, err
	}

	return workflows, nil
}

func (r *workflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	return r.db.WithContext(ctx).Create(workflow).Error
}

func (r *workflowRepository) Update(ctx context.Context, workflow *models.Workflow) error {
	return r.db.WithContext(ctx).Save(workflow).Error
}

func (r *workflowRepository) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r *workflowRepository) UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return r.db.WithContext(ctx).Save(execution).Error
}

func (r *workflowRepository) GetExecution(ctx context.Context, id uint) (models.WorkflowExecution, error) {
	var execution models.WorkflowExecution
	if err := r.db.WithContext(ctx).First(&execution, id).Error; err != nil {
		return models.WorkflowExecution{}, err
	}

	return execution, nil
}

func (r *workflowRepository) ListExecutions(ctx context.Context, workflowID uint) ([]models.WorkflowExecution, error) {
	var executions []models.WorkflowExecution
	if err := r.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("created_at DESC").
		Find(&executions).Error; err != nil {
		return nil, err
	}

	return executions, nil
}

func (r *workflowRepository) CreateScheduledStep(ctx context.Context, step *models.WorkflowScheduledStep) error {
	return r.db.WithContext(ctx).Create(step).Error
}

func (r *workflowRepository) DueScheduledSteps(ctx context.Context, now time.Time, limit int) ([]models.WorkflowScheduledStep, error) {
	if limit <= 0 {
		limit = 50
	}

	var steps []models.WorkflowScheduledStep
	if err := r.db.WithContext(ctx).
		Where("run_at <= ?", now).
		Order("run_at ASC").
		Limit(limit).
		Find(&steps).Error; err != nil {
		return nil, err
	}

	return steps, nil
}

func (r *workflowRepository) DeleteScheduledStep(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.WorkflowScheduledStep{}, id).Error
}
