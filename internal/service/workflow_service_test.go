package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

func triggerFixture(t *testing.T) (WorkflowService, *fakeWorkflowRepo, *fakeContactRepo) {
	t.Helper()
	engine, workflowRepo, contactRepo, _, _, _ := engineFixture()
	svc := NewWorkflowService(workflowRepo, engine, nil, time.Minute, testValidator(), testLogger())
	return svc, workflowRepo, contactRepo
}

func activeWorkflow(t *testing.T, repo *fakeWorkflowRepo, triggerType string, config map[string]any, actions []models.WorkflowAction) models.Workflow {
	t.Helper()
	workflow := models.Workflow{
		Name:          "flow",
		TriggerType:   triggerType,
		TriggerConfig: config,
		Status:        models.WorkflowStatusActive,
	}
	require.NoError(t, workflow.EncodeActions(actions))
	require.NoError(t, repo.Create(context.Background(), &workflow))
	return workflow
}

func TestTriggerStartsMatchingExecutions(t *testing.T) {
	svc, workflowRepo, contactRepo := triggerFixture(t)
	activeWorkflow(t, workflowRepo, models.TriggerFormSubmission, map[string]any{"form_id": "signup"}, []models.WorkflowAction{
		{Type: models.ActionCreateContact},
	})

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerFormSubmission,
		Payload:   map[string]any{"form_id": "signup", "email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Matched)
	require.Len(t, resp.ExecutionIDs, 1)

	execution, err := workflowRepo.GetExecution(context.Background(), resp.ExecutionIDs[0])
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, execution.Status)

	_, err = contactRepo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
}

func TestTriggerConfigMismatchSkipsWorkflow(t *testing.T) {
	svc, workflowRepo, _ := triggerFixture(t)
	activeWorkflow(t, workflowRepo, models.TriggerFormSubmission, map[string]any{"form_id": "signup"}, nil)

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerFormSubmission,
		Payload:   map[string]any{"form_id": "newsletter", "email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Zero(t, resp.Matched)
	require.Empty(t, resp.ExecutionIDs)
}

func TestTriggerTagAddedMatchesConfiguredTag(t *testing.T) {
	svc, workflowRepo, _ := triggerFixture(t)
	activeWorkflow(t, workflowRepo, models.TriggerTagAdded, map[string]any{"tag": "vip"}, nil)

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerTagAdded,
		Payload:   map[string]any{"tag": "vip", "email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Matched)

	other, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerTagAdded,
		Payload:   map[string]any{"tag": "lead", "email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Zero(t, other.Matched)
}

func TestTriggerEmptyConfigMatchesAll(t *testing.T) {
	svc, workflowRepo, _ := triggerFixture(t)
	activeWorkflow(t, workflowRepo, models.TriggerContactCreated, nil, nil)

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerContactCreated,
		Payload:   map[string]any{"email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Matched)
}

func TestTriggerIgnoresInactiveWorkflows(t *testing.T) {
	svc, workflowRepo, _ := triggerFixture(t)
	workflow := activeWorkflow(t, workflowRepo, models.TriggerContactCreated, nil, nil)
	workflow.Status = models.WorkflowStatusPaused
	require.NoError(t, workflowRepo.Update(context.Background(), &workflow))

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerContactCreated,
		Payload:   map[string]any{"email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Zero(t, resp.Matched)
}

func TestTriggerUnknownEventType(t *testing.T) {
	svc, _, _ := triggerFixture(t)

	_, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: "meteor_strike",
		Payload:   map[string]any{},
	})
	require.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestTriggerNumericIDsMatchAcrossJSONWidths(t *testing.T) {
	svc, workflowRepo, _ := triggerFixture(t)
	// Config stored as float64 (JSON decode), payload arrives as int.
	activeWorkflow(t, workflowRepo, models.TriggerListAdded, map[string]any{"list_id": float64(7)}, nil)

	resp, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerListAdded,
		Payload:   map[string]any{"list_id": 7, "email": "ada@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Matched)
}

func TestTriggerDeduplicatesRedeliveredEvents(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer cache.Close()

	engine, workflowRepo, _, _, _, _ := engineFixture()
	svc := NewWorkflowService(workflowRepo, engine, cache, time.Minute, testValidator(), testLogger())

	activeWorkflow(t, workflowRepo, models.TriggerFormSubmission, nil, nil)

	payload := map[string]any{"form_id": "signup", "email": "ada@example.com"}

	first, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{EventType: models.TriggerFormSubmission, Payload: payload})
	require.NoError(t, err)
	require.Len(t, first.ExecutionIDs, 1)

	second, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{EventType: models.TriggerFormSubmission, Payload: payload})
	require.NoError(t, err)
	require.Equal(t, 1, second.Matched)
	require.Empty(t, second.ExecutionIDs)

	// A different payload is a distinct event.
	third, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{
		EventType: models.TriggerFormSubmission,
		Payload:   map[string]any{"form_id": "signup", "email": "grace@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, third.ExecutionIDs, 1)

	// Once the window expires the same event is accepted again.
	server.FastForward(2 * time.Minute)
	fourth, err := svc.Trigger(context.Background(), dto.WorkflowTriggerRequest{EventType: models.TriggerFormSubmission, Payload: payload})
	require.NoError(t, err)
	require.Len(t, fourth.ExecutionIDs, 1)
}
