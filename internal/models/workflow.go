package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	// WorkflowStatusDraft means the workflow is being authored and never matches events.
	WorkflowStatusDraft = "draft"
	// WorkflowStatusActive means the workflow matches incoming trigger events.
	WorkflowStatusActive = "active"
	// WorkflowStatusPaused means the workflow is temporarily excluded from matching.
	WorkflowStatusPaused = "paused"
)

// Trigger types a workflow can subscribe to.
const (
	TriggerFormSubmission = "form_submission"
	TriggerContactCreated = "contact_created"
	TriggerEmailOpened    = "email_opened"
	TriggerLinkClicked    = "link_clicked"
	TriggerInactivity     = "inactivity"
	TriggerTagAdded       = "tag_added"
	TriggerListAdded      = "list_added"
	TriggerDateBased      = "date_based"
)

// Action types executable within a workflow.
const (
	ActionCreateContact    = "create_contact"
	ActionSendEmail        = "send_email"
	ActionAddToList        = "add_to_list"
	ActionRemoveFromList   = "remove_from_list"
	ActionAddTag           = "add_tag"
	ActionRemoveTag        = "remove_tag"
	ActionUpdateField      = "update_field"
	ActionWait             = "wait"
	ActionSendNotification = "send_notification"
)

// WorkflowAction is one step in a workflow's ordered action list. The list is
// stored as a JSON column; order in the slice is execution order.
type WorkflowAction struct {
	Type         string         `json:"type"`
	Config       map[string]any `json:"config"`
	DelayMinutes int            `json:"delay_minutes"`
}

// Workflow is an automation definition: a trigger plus an ordered action list.
type Workflow struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Name          string            `gorm:"size:255;not null" json:"name"`
	TriggerType   string            `gorm:"size:32;index;not null" json:"trigger_type"`
	TriggerConfig datatypes.JSONMap `gorm:"type:json" json:"trigger_config"`
	Actions       datatypes.JSON    `json:"actions"`
	Status        string            `gorm:"size:16;index;not null;default:draft" json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// DecodeActions unpacks the stored action list.
func (w Workflow) DecodeActions() ([]WorkflowAction, error) {
	if len(w.Actions) == 0 {
		return nil, nil
	}
	var actions []WorkflowAction
	if err := json.Unmarshal(w.Actions, &actions); err != nil {
		return nil, fmt.Errorf("malformed action list on workflow %d: %w", w.ID, err)
	}
	return actions, nil
}

// EncodeActions stores the given action list on the workflow.
func (w *Workflow) EncodeActions(actions []WorkflowAction) error {
	encoded, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	w.Actions = datatypes.JSON(encoded)
	return nil
}

const (
	// ExecutionStatusPending means the execution has steps left to run.
	ExecutionStatusPending = "pending"
	// ExecutionStatusCompleted means every action ran successfully.
	ExecutionStatusCompleted = "completed"
	// ExecutionStatusFailed means an action failed and the chain stopped.
	ExecutionStatusFailed = "failed"
)

// WorkflowExecution is one run of a workflow for one triggering event. NextStep
// is the index of the next action to execute, which makes delayed executions
// resumable after a restart.
type WorkflowExecution struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	WorkflowID     uint              `gorm:"index;not null" json:"workflow_id"`
	Status         string            `gorm:"size:16;index;not null;default:pending" json:"status"`
	TriggerPayload datatypes.JSONMap `gorm:"type:json" json:"trigger_payload"`
	NextStep       int               `gorm:"not null;default:0" json:"next_step"`
	FailureReason  string            `gorm:"size:512" json:"failure_reason,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     *time.Time        `json:"finished_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// WorkflowScheduledStep is a durable "resume execution at step N no earlier than
// RunAt" marker. Rows are deleted once dispatched.
type WorkflowScheduledStep struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExecutionID uint      `gorm:"index;not null" json:"execution_id"`
	StepIndex   int       `gorm:"not null" json:"step_index"`
	RunAt       time.Time `gorm:"index;not null" json:"run_at"`
	CreatedAt   time.Time `json:"created_at"`
}
