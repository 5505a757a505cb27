package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/swaggest/jsonschema-go"
)

// GenericTool is a type-safe tool whose argument schema is reflected from
// TInput. Struct tags follow swaggest/jsonschema-go (`required:"true"`,
// `description:"..."`, `enum:"a,b"`).
type GenericTool[TInput any, TOutput any] struct {
	Type        string
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     GenericToolHandler[TInput, TOutput]
}

// GenericToolHandler is a type-safe handler function
type GenericToolHandler[TInput any, TOutput any] func(ctx context.Context, input TInput) (TOutput, error)

// GetType returns the tool type (always "function" for now)
func (gt *GenericTool[TInput, TOutput]) GetType() string {
	return gt.Type
}

// GetName returns the tool's name
func (gt *GenericTool[TInput, TOutput]) GetName() string {
	return gt.Name
}

// GetDescription returns the tool's description
func (gt *GenericTool[TInput, TOutput]) GetDescription() string {
	return gt.Description
}

// GetParameters returns the JSON schema for the tool's parameters
func (gt *GenericTool[TInput, TOutput]) GetParameters() *jsonschema.Schema {
	return gt.Schema
}

// Execute decodes the arguments, checks required fields and runs the
// handler. Every failure is reported as an error payload.
func (gt *GenericTool[TInput, TOutput]) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	args := call.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	var input TInput
	if err := json.Unmarshal(args, &input); err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("failed to parse input: %v", err)), nil
	}

	if err := gt.checkRequired(args); err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("validation failed: %v", err)), nil
	}

	output, err := gt.Handler(ctx, input)
	if err != nil {
		return aisdk.ErrorResponse(err.Error()), nil
	}

	content, err := json.Marshal(output)
	if err != nil {
		return aisdk.ErrorResponse(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return &aisdk.ToolResponse{Content: content}, nil
}

// checkRequired looks for each required key in the raw arguments. Presence
// is what counts: a zero number is a valid argument.
func (gt *GenericTool[TInput, TOutput]) checkRequired(args json.RawMessage) error {
	if gt.Schema == nil || len(gt.Schema.Required) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return err
	}
	for _, name := range gt.Schema.Required {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return fmt.Errorf("required field '%s' is missing", name)
		}
	}
	return nil
}

// NewGenericTool creates a new generic tool with automatic schema generation
func NewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) (*GenericTool[TInput, TOutput], error) {
	var input TInput
	inputType := reflect.TypeOf(input)
	if inputType == nil {
		return nil, fmt.Errorf("tool input type must be a struct, got interface")
	}
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool input type must be a struct, got %s", inputType.Kind())
	}
	if handler == nil {
		return nil, fmt.Errorf("tool %s has no handler", name)
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(reflect.New(inputType).Elem().Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	return &GenericTool[TInput, TOutput]{
		Type:        "function",
		Name:        name,
		Description: description,
		Schema:      &schema,
		Handler:     handler,
	}, nil
}

// MustNewGenericTool creates a new generic tool and panics on error
func MustNewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) *GenericTool[TInput, TOutput] {
	tool, err := NewGenericTool(name, description, handler)
	if err != nil {
		panic(fmt.Sprintf("failed to create generic tool: %v", err))
	}
	return tool
}

// Ensure GenericTool implements the Tool interface
var _ Tool = (*GenericTool[struct{}, any])(nil)
