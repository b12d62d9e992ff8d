package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// ErrUnknownTrigger indicates an event type no workflow can subscribe to.
var ErrUnknownTrigger = errors.New("unknown trigger type")

// triggerMatchKeys lists, per trigger type, which trigger_config keys must
// equal the event payload's value for the workflow to match. A key absent from
// the workflow's config does not constrain matching.
var triggerMatchKeys = map[string][]string{
	models.TriggerFormSubmission: {"form_id"},
	models.TriggerContactCreated: nil,
	models.TriggerEmailOpened:    {"email_id"},
	models.TriggerLinkClicked:    {"url"},
	models.TriggerInactivity:     nil,
	models.TriggerTagAdded:       {"tag"},
	models.TriggerListAdded:      {"list_id"},
	models.TriggerDateBased:      nil,
}

// WorkflowService matches trigger events against active workflows and starts
// executions.
type WorkflowService interface {
	Trigger(ctx context.Context, req dto.WorkflowTriggerRequest) (dto.WorkflowTriggerResponse, error)
}

type workflowService struct {
	workflows repository.WorkflowRepository
	engine    *WorkflowEngine
	cache     *redis.Client
	dedupeTTL time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewWorkflowService constructs a WorkflowService. cache may be nil, which
// disables duplicate-event suppression.
func NewWorkflowService(workflowRepo repository.WorkflowRepository, engine *WorkflowEngine, cache *redis.Client, dedupeTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) WorkflowService {
	if dedupeTTL <= 0 {
		dedupeTTL = 2 * time.Minute
	}

	return &workflowService{
		workflows: workflowRepo,
		engine:    engine,
		cache:     cache,
		dedupeTTL: dedupeTTL,
		validator: validate,
		logger:    logger.With().Str("component", "workflow_service").Logger(),
		tracer:    otel.Tracer("github.com/lumora-hq/lumora-api/internal/service/workflow"),
		now:       time.Now,
	}
}

// Trigger matches the event against active workflows and starts one execution
// per match. A failed execution never pauses its workflow; each event starts
// fresh executions.
func (s *workflowService) Trigger(ctx context.Context, req dto.WorkflowTriggerRequest) (dto.WorkflowTriggerResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WorkflowTriggerResponse{}, err
	}

	if _, ok := triggerMatchKeys[req.EventType]; !ok {
		return dto.WorkflowTriggerResponse{}, fmt.Errorf("%w: %q", ErrUnknownTrigger, req.EventType)
	}

	ctx, span := s.tracer.Start(ctx, "workflow.trigger", trace.WithAttributes(
		attribute.String("trigger.type", req.EventType),
	))
	defer span.End()

	workflows, err := s.workflows.ListActiveByTrigger(ctx, req.EventType)
	if err != nil {
		span.RecordError(err)
		return dto.WorkflowTriggerResponse{}, err
	}

	response := dto.WorkflowTriggerResponse{ExecutionIDs: []uint{}}

	for _, workflow := range workflows {
		if !matchesTrigger(workflow, req.Payload) {
			continue
		}
		response.Matched++

		if s.isDuplicate(ctx, workflow.ID, req.Payload) {
			s.logger.Info().Uint("workflow_id", workflow.ID).Msg("duplicate trigger event suppressed")
			continue
		}

		execution := models.WorkflowExecution{
			WorkflowID:     workflow.ID,
			Status:         models.ExecutionStatusPending,
			TriggerPayload: req.Payload,
			StartedAt:      s.now(),
		}
		if err := s.workflows.CreateExecution(ctx, &execution); err != nil {
			span.RecordError(err)
			return dto.WorkflowTriggerResponse{}, err
		}
		response.ExecutionIDs = append(response.ExecutionIDs, execution.ID)

		if err := s.engine.Advance(ctx, &execution, false); err != nil {
			// The execution row exists; its failure is recorded there. Keep
			// processing the remaining matched workflows.
			s.logger.Error().Err(err).Uint("execution_id", execution.ID).Msg("execution advance failed")
		}
	}

	return response, nil
}

// matchesTrigger applies the per-type config constraints. Values compare as
// strings so numeric ids match regardless of JSON decoding width.
func matchesTrigger(workflow models.Workflow, payload map[string]any) bool {
	keys := triggerMatchKeys[workflow.TriggerType]
	for _, key := range keys {
		expected, ok := workflow.TriggerConfig[key]
		if !ok || expected == nil {
			continue
		}
		expectedStr := strings.TrimSpace(fmt.Sprint(expected))
		if expectedStr == "" {
			continue
		}
		if strings.TrimSpace(payloadString(payload, key)) != expectedStr {
			return false
		}
	}
	return true
}

// isDuplicate suppresses redelivery of the same event to the same workflow
// within the dedupe window. Without redis every event is accepted.
func (s *workflowService) isDuplicate(ctx context.Context, workflowID uint, payload map[string]any) bool {
	if s.cache == nil {
		return false
	}

	key := fmt.Sprintf("workflow:dedupe:%d:%s", workflowID, payloadChecksum(payload))
	ok, err := s.cache.SetNX(ctx, key, 1, s.dedupeTTL).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("dedupe check failed, accepting event")
		return false
	}

	return !ok
}

func payloadChecksum(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		encoded, _ := json.Marshal(payload[key])
		hasher.Write(encoded)
		hasher.Write([]byte("|"))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
