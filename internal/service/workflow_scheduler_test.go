package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumora-hq/lumora-api/internal/models"
)

func TestDispatchDueResumesExecution(t *testing.T) {
	engine, workflowRepo, _, _, mail, _ := engineFixture()

	workflow := storedWorkflow(t, workflowRepo, []models.WorkflowAction{
		{Type: models.ActionSendEmail, Config: map[string]any{"template_id": 1}, DelayMinutes: 5},
	})
	execution := startExecution(t, workflowRepo, workflow.ID, map[string]any{"email": "ada@example.com"})
	require.NoError(t, engine.Advance(context.Background(), execution, false))
	require.Len(t, workflowRepo.steps, 1)
	require.Empty(t, mail.sent)

	scheduler := NewWorkflowScheduler(workflowRepo, engine, 50, testLogger())
	scheduler.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	dispatched, err := scheduler.DispatchDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dispatched)
	require.Len(t, mail.sent, 1)
	require.Empty(t, workflowRepo.steps)

	resumed, err := workflowRepo.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, resumed.Status)
}

func TestDispatchDueSkipsFutureSteps(t *testing.T) {
	engine, workflowRepo, _, _, mail, _ := engineFixture()

	workflow := storedWorkflow(t, workflowRepo, []models.WorkflowAction{
		{Type: models.ActionSendEmail, Config: map[string]any{"template_id": 1}, DelayMinutes: 60},
	})
	execution := startExecution(t, workflowRepo, workflow.ID, map[string]any{"email": "ada@example.com"})
	require.NoError(t, engine.Advance(context.Background(), execution, false))

	scheduler := NewWorkflowScheduler(workflowRepo, engine, 50, testLogger())

	dispatched, err := scheduler.DispatchDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, dispatched)
	require.Empty(t, mail.sent)
	require.Len(t, workflowRepo.steps, 1)
}

func TestDispatchDueDropsStaleMarkers(t *testing.T) {
	engine, workflowRepo, _, _, _, _ := engineFixture()

	workflow := storedWorkflow(t, workflowRepo, nil)
	execution := startExecution(t, workflowRepo, workflow.ID, nil)
	execution.Status = models.ExecutionStatusFailed
	require.NoError(t, workflowRepo.UpdateExecution(context.Background(), execution))

	step := models.WorkflowScheduledStep{ExecutionID: execution.ID, StepIndex: 1, RunAt: time.Now().Add(-time.Minute)}
	require.NoError(t, workflowRepo.CreateScheduledStep(context.Background(), &step))

	scheduler := NewWorkflowScheduler(workflowRepo, engine, 50, testLogger())

	dispatched, err := scheduler.DispatchDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, dispatched)
	require.Empty(t, workflowRepo.steps)
}
