package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/observability"
	"github.com/lumora-hq/lumora-api/internal/repository"
	"github.com/lumora-hq/lumora-api/pkg/mailer"
)

// ErrUnknownAction indicates an action type the engine cannot dispatch.
var ErrUnknownAction = errors.New("unknown action type")

// WorkflowEngine runs the action list of one execution. Delayed steps are
// persisted as scheduled-step rows and resumed by the dispatcher, so an
// execution survives process restarts.
type WorkflowEngine struct {
	workflows     repository.WorkflowRepository
	contacts      repository.ContactRepository
	templates     repository.EmailTemplateRepository
	mail          mailer.Mailer
	notifications NotificationService
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewWorkflowEngine constructs the execution engine.
func NewWorkflowEngine(
	workflowRepo repository.WorkflowRepository,
	contactRepo repository.ContactRepository,
	templateRepo repository.EmailTemplateRepository,
	mail mailer.Mailer,
	notifications NotificationService,
	logger zerolog.Logger,
) *WorkflowEngine {
	return &WorkflowEngine{
		workflows:     workflowRepo,
		contacts:      contactRepo,
		templates:     templateRepo,
		mail:          mail,
		notifications: notifications,
		logger:        logger.With().Str("component", "workflow_engine").Logger(),
		tracer:        otel.Tracer("github.com/lumora-hq/lumora-api/internal/service/workflow"),
		now:           time.Now,
	}
}

// Advance executes actions from execution.NextStep onward, in stored order.
// When it reaches a step with a delay it persists a scheduled-step row and
// stops; the dispatcher calls Advance again with resumed=true once the delay
// has elapsed, which executes that step without re-applying its delay.
//
// A failing action marks the execution failed and stops the chain; effects of
// earlier actions stand. Advance returns an error only for infrastructure
// failures around the execution record itself.
func (e *WorkflowEngine) Advance(ctx context.Context, execution *models.WorkflowExecution, resumed bool) error {
	ctx, span := e.tracer.Start(ctx, "workflow.advance", trace.WithAttributes(
		attribute.Int("workflow.id", int(execution.WorkflowID)),
		attribute.Int("execution.id", int(execution.ID)),
	))
	defer span.End()

	workflow, err := e.workflows.GetByID(ctx, execution.WorkflowID)
	if err != nil {
		span.RecordError(err)
		return e.failExecution(ctx, execution, fmt.Sprintf("workflow load failed: %v", err))
	}

	actions, err := workflow.DecodeActions()
	if err != nil {
		span.RecordError(err)
		return e.failExecution(ctx, execution, err.Error())
	}

	for index := execution.NextStep; index < len(actions); index++ {
		action := actions[index]

		if delay := effectiveDelay(action); delay > 0 && !(resumed && index == execution.NextStep) {
			step := models.WorkflowScheduledStep{
				ExecutionID: execution.ID,
				StepIndex:   index,
				RunAt:       e.now().Add(time.Duration(delay) * time.Minute),
			}
			if err := e.workflows.CreateScheduledStep(ctx, &step); err != nil {
				span.RecordError(err)
				return e.failExecution(ctx, execution, fmt.Sprintf("scheduling step %d failed: %v", index, err))
			}

			execution.NextStep = index
			if err := e.workflows.UpdateExecution(ctx, execution); err != nil {
				span.RecordError(err)
				return err
			}

			e.logger.Info().
				Uint("execution_id", execution.ID).
				Int("step", index).
				Time("run_at", step.RunAt).
				Msg("execution suspended for delayed step")

			return nil
		}
		resumed = false

		if err := e.executeAction(ctx, action, execution); err != nil {
			observability.WorkflowActions().WithLabelValues(action.Type, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "action failed")
			return e.failExecution(ctx, execution, fmt.Sprintf("action %d (%s): %v", index, action.Type, err))
		}
		observability.WorkflowActions().WithLabelValues(action.Type, "ok").Inc()

		execution.NextStep = index + 1
	}

	finishedAt := e.now()
	execution.Status = models.ExecutionStatusCompleted
	execution.FinishedAt = &finishedAt
	if err := e.workflows.UpdateExecution(ctx, execution); err != nil {
		span.RecordError(err)
		return err
	}

	observability.WorkflowExecutions().WithLabelValues(models.ExecutionStatusCompleted).Inc()
	e.logger.Info().Uint("execution_id", execution.ID).Msg("execution completed")

	return nil
}

func (e *WorkflowEngine) failExecution(ctx context.Context, execution *models.WorkflowExecution, reason string) error {
	finishedAt := e.now()
	execution.Status = models.ExecutionStatusFailed
	execution.FailureReason = truncate(reason, 512)
	execution.FinishedAt = &finishedAt

	if err := e.workflows.UpdateExecution(ctx, execution); err != nil {
		return err
	}

	observability.WorkflowExecutions().WithLabelValues(models.ExecutionStatusFailed).Inc()
	e.logger.Warn().Uint("execution_id", execution.ID).Str("reason", execution.FailureReason).Msg("execution failed")

	return nil
}

func (e *WorkflowEngine) executeAction(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution) error {
	switch action.Type {
	case models.ActionCreateContact:
		return e.createContact(ctx, execution)
	case models.ActionSendEmail:
		return e.sendEmail(ctx, action, execution)
	case models.ActionAddToList:
		return e.changeListMembership(ctx, action, execution, true)
	case models.ActionRemoveFromList:
		return e.changeListMembership(ctx, action, execution, false)
	case models.ActionAddTag:
		return e.changeTags(ctx, action, execution, true)
	case models.ActionRemoveTag:
		return e.changeTags(ctx, action, execution, false)
	case models.ActionUpdateField:
		return e.updateField(ctx, action, execution)
	case models.ActionWait:
		// The wait itself was honored by the scheduler before this step ran.
		return nil
	case models.ActionSendNotification:
		return e.sendNotification(ctx, action, execution)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// createContact derives a contact from the triggering payload and inserts it
// unless one with that email already exists.
func (e *WorkflowEngine) createContact(ctx context.Context, execution *models.WorkflowExecution) error {
	email := strings.ToLower(strings.TrimSpace(payloadString(execution.TriggerPayload, "email")))
	if email == "" {
		return errors.New("create_contact requires an email in the trigger payload")
	}

	if _, err := e.contacts.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	contact := models.Contact{
		Email:     email,
		FirstName: payloadString(execution.TriggerPayload, "first_name"),
		LastName:  payloadString(execution.TriggerPayload, "last_name"),
		Phone:     payloadString(execution.TriggerPayload, "phone"),
	}

	if err := e.contacts.Create(ctx, &contact); err != nil {
		// A concurrent execution may have inserted the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	e.logger.Info().Str("email", email).Msg("contact created by workflow")

	return nil
}

func (e *WorkflowEngine) sendEmail(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution) error {
	templateID, ok := configUint(action.Config, "template_id")
	if !ok {
		return errors.New("send_email requires template_id")
	}

	template, err := e.templates.GetByID(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to load email template %d: %w", templateID, err)
	}

	to := strings.TrimSpace(configString(action.Config, "to"))
	if to == "" {
		to = strings.TrimSpace(payloadString(execution.TriggerPayload, "email"))
	}
	if to == "" {
		return errors.New("send_email has no recipient address")
	}

	vars := e.variableContext(ctx, to, execution)
	subject := substitute(template.Subject, vars)
	body := substitute(template.Body, vars)

	if err := e.mail.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("mail delivery failed: %w", err)
	}

	return nil
}

func (e *WorkflowEngine) changeListMembership(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution, add bool) error {
	listID, ok := configUint(action.Config, "list_id")
	if !ok {
		return errors.New("list action requires list_id")
	}

	contact, err := e.resolveContact(ctx, execution)
	if err != nil {
		return err
	}

	if add {
		return e.contacts.AddToList(ctx, contact.ID, listID)
	}

	return e.contacts.RemoveFromList(ctx, contact.ID, listID)
}

// changeTags mutates the contact's tag set: add is a union, remove a set
// difference. Duplicates are never stored.
func (e *WorkflowEngine) changeTags(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution, add bool) error {
	tag := strings.TrimSpace(configString(action.Config, "tag"))
	if tag == "" {
		return errors.New("tag action requires tag")
	}

	contact, err := e.resolveContact(ctx, execution)
	if err != nil {
		return err
	}

	tags := contact.TagSet()
	if add {
		for _, existing := range tags {
			if existing == tag {
				return nil
			}
		}
		tags = append(tags, tag)
	} else {
		filtered := tags[:0]
		removed := false
		for _, existing := range tags {
			if existing == tag {
				removed = true
				continue
			}
			filtered = append(filtered, existing)
		}
		if !removed {
			return nil
		}
		tags = filtered
	}

	if err := contact.SetTags(tags); err != nil {
		return err
	}

	return e.contacts.Update(ctx, &contact)
}

func (e *WorkflowEngine) updateField(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution) error {
	field := strings.TrimSpace(configString(action.Config, "field"))
	if field == "" {
		return errors.New("update_field requires field")
	}
	value, ok := action.Config["value"]
	if !ok {
		return errors.New("update_field requires value")
	}

	contact, err := e.resolveContact(ctx, execution)
	if err != nil {
		return err
	}

	switch field {
	case "first_name":
		contact.FirstName = fmt.Sprint(value)
	case "last_name":
		contact.LastName = fmt.Sprint(value)
	case "phone":
		contact.Phone = fmt.Sprint(value)
	default:
		if contact.Fields == nil {
			contact.Fields = map[string]any{}
		}
		contact.Fields[field] = value
	}

	return e.contacts.Update(ctx, &contact)
}

func (e *WorkflowEngine) sendNotification(ctx context.Context, action models.WorkflowAction, execution *models.WorkflowExecution) error {
	if e.notifications == nil {
		return errors.New("notification service is not configured")
	}

	message := strings.TrimSpace(configString(action.Config, "message"))
	if message == "" {
		return errors.New("send_notification requires message")
	}

	notificationType := configString(action.Config, "type")
	if notificationType == "" {
		notificationType = "workflow"
	}

	vars := e.variableContext(ctx, payloadString(execution.TriggerPayload, "email"), execution)

	_, err := e.notifications.Publish(ctx, dto.NotificationCreateRequest{
		Audience: models.NotificationAudienceAdmin,
		Type:     notificationType,
		Message:  substitute(message, vars),
		Metadata: map[string]any{"workflow_id": execution.WorkflowID, "execution_id": execution.ID},
	})

	return err
}

// resolveContact finds the contact the execution operates on, by email from
// the trigger payload.
func (e *WorkflowEngine) resolveContact(ctx context.Context, execution *models.WorkflowExecution) (models.Contact, error) {
	email := strings.ToLower(strings.TrimSpace(payloadString(execution.TriggerPayload, "email")))
	if email == "" {
		return models.Contact{}, errors.New("trigger payload carries no contact email")
	}

	contact, err := e.contacts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Contact{}, fmt.Errorf("no contact for %s", email)
		}
		return models.Contact{}, err
	}

	return contact, nil
}

// variableContext assembles the {placeholder} substitutions available to
// templates and notification messages.
func (e *WorkflowEngine) variableContext(ctx context.Context, email string, execution *models.WorkflowExecution) map[string]string {
	vars := map[string]string{
		"email":       email,
		"first_name":  payloadString(execution.TriggerPayload, "first_name"),
		"last_name":   payloadString(execution.TriggerPayload, "last_name"),
		"course_name": payloadString(execution.TriggerPayload, "course_name"),
	}

	if email != "" {
		if contact, err := e.contacts.GetByEmail(ctx, strings.ToLower(email)); err == nil {
			if contact.FirstName != "" {
				vars["first_name"] = contact.FirstName
			}
			if contact.LastName != "" {
				vars["last_name"] = contact.LastName
			}
		}
	}

	fullName := strings.TrimSpace(vars["first_name"] + " " + vars["last_name"])
	vars["student_name"] = fullName

	return vars
}

// effectiveDelay returns the minutes execution must wait before running the
// action. A wait action may carry its duration in config instead.
func effectiveDelay(action models.WorkflowAction) int {
	if action.DelayMinutes > 0 {
		return action.DelayMinutes
	}
	if action.Type == models.ActionWait {
		if minutes, ok := configUint(action.Config, "minutes"); ok {
			return int(minutes)
		}
	}
	return 0
}

func substitute(text string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key]; ok && value != nil {
		return fmt.Sprint(value)
	}
	return ""
}

func configString(config map[string]any, key string) string {
	return payloadString(config, key)
}

func configUint(config map[string]any, key string) (uint, bool) {
	if config == nil {
		return 0, false
	}
	switch v := config[key].(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		var parsed uint
		if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
