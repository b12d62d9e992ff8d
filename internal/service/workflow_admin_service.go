package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
	"github.com/lumora-hq/lumora-api/internal/schema"
)

// ErrWorkflowNotFound indicates the referenced workflow does not exist.
var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowAdminService manages workflow authoring and lifecycle.
type WorkflowAdminService interface {
	Create(ctx context.Context, req dto.WorkflowCreateRequest) (dto.WorkflowResponse, error)
	Update(ctx context.Context, id uint, req dto.WorkflowUpdateRequest) (dto.WorkflowResponse, error)
	Get(ctx context.Context, id uint) (dto.WorkflowResponse, error)
	List(ctx context.Context, status string) ([]dto.WorkflowResponse, error)
	ListExecutions(ctx context.Context, workflowID uint) ([]dto.WorkflowExecutionResponse, error)
}

type workflowAdminService struct {
	workflows repository.WorkflowRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewWorkflowAdminService constructs a WorkflowAdminService instance.
func NewWorkflowAdminService(workflowRepo repository.WorkflowRepository, validate *validator.Validate, logger zerolog.Logger) WorkflowAdminService {
	return &workflowAdminService{
		workflows: workflowRepo,
		validator: validate,
		logger:    logger.With().Str("component", "workflow_admin_service").Logger(),
	}
}

func (s *workflowAdminService) Create(ctx context.Context, req dto.WorkflowCreateRequest) (dto.WorkflowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WorkflowResponse{}, err
	}

	if err := schema.ValidateTriggerConfig(req.TriggerType, req.TriggerConfig); err != nil {
		return dto.WorkflowResponse{}, err
	}

	actions, err := validateActions(req.Actions)
	if err != nil {
		return dto.WorkflowResponse{}, err
	}

	workflow := models.Workflow{
		Name:          req.Name,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		Status:        models.WorkflowStatusDraft,
	}
	if err := workflow.EncodeActions(actions); err != nil {
		return dto.WorkflowResponse{}, err
	}

	if err := s.workflows.Create(ctx, &workflow); err != nil {
		return dto.WorkflowResponse{}, err
	}

	s.logger.Info().Uint("workflow_id", workflow.ID).Str("trigger", workflow.TriggerType).Msg("workflow created")

	return dto.NewWorkflowResponse(workflow)
}

func (s *workflowAdminService) Update(ctx context.Context, id uint, req dto.WorkflowUpdateRequest) (dto.WorkflowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WorkflowResponse{}, err
	}

	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WorkflowResponse{}, ErrWorkflowNotFound
		}
		return dto.WorkflowResponse{}, err
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}

	if req.TriggerConfig != nil {
		if err := schema.ValidateTriggerConfig(workflow.TriggerType, req.TriggerConfig); err != nil {
			return dto.WorkflowResponse{}, err
		}
		workflow.TriggerConfig = req.TriggerConfig
	}

	if req.Actions != nil {
		actions, err := validateActions(req.Actions)
		if err != nil {
			return dto.WorkflowResponse{}, err
		}
		if err := workflow.EncodeActions(actions); err != nil {
			return dto.WorkflowResponse{}, err
		}
	}

	if req.Status != nil {
		workflow.Status = *req.Status
	}

	if err := s.workflows.Update(ctx, &workflow); err != nil {
		return dto.WorkflowResponse{}, err
	}

	s.logger.Info().Uint("workflow_id", workflow.ID).Str("status", workflow.Status).Msg("workflow updated")

	return dto.NewWorkflowResponse(workflow)
}

func (s *workflowAdminService) Get(ctx context.Context, id uint) (dto.WorkflowResponse, error) {
	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WorkflowResponse{}, ErrWorkflowNotFound
		}
		return dto.WorkflowResponse{}, err
	}

	return dto.NewWorkflowResponse(workflow)
}

func (s *workflowAdminService) List(ctx context.Context, status string) ([]dto.WorkflowResponse, error) {
	workflows, err := s.workflows.List(ctx, repository.WorkflowFilter{Status: status})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.WorkflowResponse, 0, len(workflows))
	for _, workflow := range workflows {
		response, err := dto.NewWorkflowResponse(workflow)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *workflowAdminService) ListExecutions(ctx context.Context, workflowID uint) ([]dto.WorkflowExecutionResponse, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}

	executions, err := s.workflows.ListExecutions(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.WorkflowExecutionResponse, 0, len(executions))
	for _, execution := range executions {
		responses = append(responses, dto.NewWorkflowExecutionResponse(execution))
	}

	return responses, nil
}

func validateActions(inputs []dto.WorkflowActionInput) ([]models.WorkflowAction, error) {
	actions := make([]models.WorkflowAction, 0, len(inputs))
	for index, input := range inputs {
		if err := schema.ValidateActionConfig(input.Type, input.Config); err != nil {
			return nil, fmt.Errorf("action %d: %w", index+1, err)
		}
		actions = append(actions, models.WorkflowAction{
			Type:         input.Type,
			Config:       input.Config,
			DelayMinutes: input.DelayMinutes,
		})
	}
	return actions, nil
}
