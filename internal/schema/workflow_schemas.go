// Package schema validates the free-form trigger and action configuration
// objects attached to workflows at authoring time, so malformed config is
// rejected before an execution ever dispatches it.
package schema

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// ErrInvalid marks configuration rejected by schema validation.
var ErrInvalid = errors.New("invalid workflow configuration")

var actionSchemas = map[string]string{
	models.ActionCreateContact: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {}
	}`,
	models.ActionSendEmail: `{
		"type": "object",
		"required": ["template_id"],
		"properties": {
			"template_id": {"type": "integer", "minimum": 1},
			"to": {"type": "string"}
		}
	}`,
	models.ActionAddToList: `{
		"type": "object",
		"required": ["list_id"],
		"properties": {
			"list_id": {"type": "integer", "minimum": 1}
		}
	}`,
	models.ActionRemoveFromList: `{
		"type": "object",
		"required": ["list_id"],
		"properties": {
			"list_id": {"type": "integer", "minimum": 1}
		}
	}`,
	models.ActionAddTag: `{
		"type": "object",
		"required": ["tag"],
		"properties": {
			"tag": {"type": "string", "minLength": 1}
		}
	}`,
	models.ActionRemoveTag: `{
		"type": "object",
		"required": ["tag"],
		"properties": {
			"tag": {"type": "string", "minLength": 1}
		}
	}`,
	models.ActionUpdateField: `{
		"type": "object",
		"required": ["field", "value"],
		"properties": {
			"field": {"type": "string", "minLength": 1},
			"value": {}
		}
	}`,
	models.ActionWait: `{
		"type": "object",
		"properties": {
			"minutes": {"type": "integer", "minimum": 1}
		}
	}`,
	models.ActionSendNotification: `{
		"type": "object",
		"required": ["message"],
		"properties": {
			"message": {"type": "string", "minLength": 1},
			"type": {"type": "string"}
		}
	}`,
}

var triggerSchemas = map[string]string{
	models.TriggerFormSubmission: `{
		"type": "object",
		"required": ["form_id"],
		"properties": {
			"form_id": {"type": ["string", "integer"]}
		}
	}`,
	models.TriggerContactCreated: `{"type": "object"}`,
	models.TriggerEmailOpened: `{
		"type": "object",
		"properties": {
			"email_id": {"type": ["string", "integer"]}
		}
	}`,
	models.TriggerLinkClicked: `{
		"type": "object",
		"properties": {
			"url": {"type": "string"}
		}
	}`,
	models.TriggerInactivity: `{
		"type": "object",
		"properties": {
			"days": {"type": "integer", "minimum": 1}
		}
	}`,
	models.TriggerTagAdded: `{
		"type": "object",
		"required": ["tag"],
		"properties": {
			"tag": {"type": "string", "minLength": 1}
		}
	}`,
	models.TriggerListAdded: `{
		"type": "object",
		"required": ["list_id"],
		"properties": {
			"list_id": {"type": ["string", "integer"]}
		}
	}`,
	models.TriggerDateBased: `{
		"type": "object",
		"properties": {
			"date_field": {"type": "string"}
		}
	}`,
}

var (
	compiledActionSchemas  map[string]*jsonschema.Schema
	compiledTriggerSchemas map[string]*jsonschema.Schema
)

func init() {
	compiledActionSchemas = compileAll("action", actionSchemas)
	compiledTriggerSchemas = compileAll("trigger", triggerSchemas)
}

func compileAll(kind string, sources map[string]string) map[string]*jsonschema.Schema {
	compiled := make(map[string]*jsonschema.Schema, len(sources))
	for name, source := range sources {
		schema, err := jsonschema.CompileString(fmt.Sprintf("%s/%s.json", kind, name), source)
		if err != nil {
			panic(fmt.Sprintf("invalid %s schema for %s: %v", kind, name, err))
		}
		compiled[name] = schema
	}
	return compiled
}

// ValidateActionConfig checks whether config is valid for the given action type.
func ValidateActionConfig(actionType string, config map[string]any) error {
	schema, ok := compiledActionSchemas[actionType]
	if !ok {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalid, actionType)
	}

	if config == nil {
		config = map[string]any{}
	}

	if err := schema.Validate(normalize(config)); err != nil {
		return fmt.Errorf("%w: %s config: %v", ErrInvalid, actionType, err)
	}

	return nil
}

// ValidateTriggerConfig checks whether config is valid for the given trigger type.
func ValidateTriggerConfig(triggerType string, config map[string]any) error {
	schema, ok := compiledTriggerSchemas[triggerType]
	if !ok {
		return fmt.Errorf("%w: unknown trigger type %q", ErrInvalid, triggerType)
	}

	if config == nil {
		config = map[string]any{}
	}

	if err := schema.Validate(normalize(config)); err != nil {
		return fmt.Errorf("%w: %s trigger config: %v", ErrInvalid, triggerType, err)
	}

	return nil
}

// normalize converts concrete Go numerics into the json.Number-free shapes the
// validator expects from decoded JSON. Maps arriving from fiber's body parser
// already satisfy this; values built in tests may carry int.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
