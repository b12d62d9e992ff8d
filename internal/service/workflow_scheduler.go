package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// WorkflowScheduler resumes executions whose delayed steps have come due. The
// due markers live in the database, so pending delays survive restarts; any
// instance running the scheduler picks them up.
type WorkflowScheduler struct {
	workflows repository.WorkflowRepository
	engine    *WorkflowEngine
	batchSize int
	logger    zerolog.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewWorkflowScheduler constructs the scheduler.
func NewWorkflowScheduler(workflowRepo repository.WorkflowRepository, engine *WorkflowEngine, batchSize int, logger zerolog.Logger) *WorkflowScheduler {
	if batchSize <= 0 {
		batchSize = 50
	}

	return &WorkflowScheduler{
		workflows: workflowRepo,
		engine:    engine,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "workflow_scheduler").Logger(),
		now:       time.Now,
	}
}

// Start polls for due steps once a minute, matching the minute granularity of
// action delays.
func (s *WorkflowScheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("* * * * *", func() {
		dispatched, err := s.DispatchDue(context.Background())
		if err != nil {
			s.logger.Error().Err(err).Msg("scheduled dispatch failed")
			return
		}
		if dispatched > 0 {
			s.logger.Info().Int("dispatched", dispatched).Msg("resumed delayed executions")
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Msg("workflow scheduler started")

	return nil
}

// Stop halts the polling loop and waits for an in-flight run to finish.
func (s *WorkflowScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// DispatchDue resumes every execution with a due scheduled step. Each marker
// is deleted once handled; executions no longer pending are skipped.
func (s *WorkflowScheduler) DispatchDue(ctx context.Context) (int, error) {
	steps, err := s.workflows.DueScheduledSteps(ctx, s.now(), s.batchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, step := range steps {
		execution, err := s.workflows.GetExecution(ctx, step.ExecutionID)
		if err != nil {
			s.logger.Error().Err(err).Uint("execution_id", step.ExecutionID).Msg("failed to load execution for due step")
			continue
		}

		if execution.Status != models.ExecutionStatusPending {
			if err := s.workflows.DeleteScheduledStep(ctx, step.ID); err != nil {
				s.logger.Error().Err(err).Uint("step_id", step.ID).Msg("failed to remove stale scheduled step")
			}
			continue
		}

		execution.NextStep = step.StepIndex
		if err := s.engine.Advance(ctx, &execution, true); err != nil {
			s.logger.Error().Err(err).Uint("execution_id", execution.ID).Msg("resumed execution advance failed")
			continue
		}

		if err := s.workflows.DeleteScheduledStep(ctx, step.ID); err != nil {
			s.logger.Error().Err(err).Uint("step_id", step.ID).Msg("failed to remove dispatched step")
			continue
		}

		dispatched++
	}

	return dispatched, nil
}
