package dto

import (
	"time"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// WorkflowActionInput is one authored action step.
type WorkflowActionInput struct {
	Type         string         `json:"type" validate:"required"`
	Config       map[string]any `json:"config"`
	DelayMinutes int            `json:"delay_minutes" validate:"gte=0"`
}

// WorkflowCreateRequest creates an automation workflow.
type WorkflowCreateRequest struct {
	Name          string                `json:"name" validate:"required"`
	TriggerType   string                `json:"trigger_type" validate:"required"`
	TriggerConfig map[string]any        `json:"trigger_config"`
	Actions       []WorkflowActionInput `json:"actions" validate:"required,min=1,dive"`
}

// WorkflowUpdateRequest mutates an existing workflow. Nil fields are untouched.
type WorkflowUpdateRequest struct {
	Name          *string               `json:"name,omitempty"`
	TriggerConfig map[string]any        `json:"trigger_config,omitempty"`
	Actions       []WorkflowActionInput `json:"actions,omitempty" validate:"omitempty,min=1,dive"`
	Status        *string               `json:"status,omitempty" validate:"omitempty,oneof=draft active paused"`
}

// WorkflowResponse is the workflow representation returned by the API.
type WorkflowResponse struct {
	ID            uint                    `json:"id"`
	Name          string                  `json:"name"`
	TriggerType   string                  `json:"trigger_type"`
	TriggerConfig map[string]any          `json:"trigger_config"`
	Actions       []models.WorkflowAction `json:"actions"`
	Status        string                  `json:"status"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewWorkflowResponse maps a workflow model to its API representation.
func NewWorkflowResponse(workflow models.Workflow) (WorkflowResponse, error) {
	actions, err := workflow.DecodeActions()
	if err != nil {
		return WorkflowResponse{}, err
	}

	return WorkflowResponse{
		ID:            workflow.ID,
		Name:          workflow.Name,
		TriggerType:   workflow.TriggerType,
		TriggerConfig: workflow.TriggerConfig,
		Actions:       actions,
		Status:        workflow.Status,
		CreatedAt:     workflow.CreatedAt,
		UpdatedAt:     workflow.UpdatedAt,
	}, nil
}

// WorkflowTriggerRequest is an inbound trigger event.
type WorkflowTriggerRequest struct {
	EventType string         `json:"event_type" validate:"required"`
	Payload   map[string]any `json:"payload"`
}

// WorkflowTriggerResponse reports which executions an event started.
type WorkflowTriggerResponse struct {
	Matched      int    `json:"matched"`
	ExecutionIDs []uint `json:"execution_ids"`
}

// WorkflowExecutionResponse is one execution record.
type WorkflowExecutionResponse struct {
	ID            uint       `json:"id"`
	WorkflowID    uint       `json:"workflow_id"`
	Status        string     `json:"status"`
	NextStep      int        `json:"next_step"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
}

// NewWorkflowExecutionResponse maps an execution model to its API representation.
func NewWorkflowExecutionResponse(execution models.WorkflowExecution) WorkflowExecutionResponse {
	return WorkflowExecutionResponse{
		ID:            execution.ID,
		WorkflowID:    execution.WorkflowID,
		Status:        execution.Status,
		NextStep:      execution.NextStep,
		FailureReason: execution.FailureReason,
		StartedAt:     execution.StartedAt,
		FinishedAt:    execution.FinishedAt,
	}
}
