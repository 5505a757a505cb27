package agent

import (
	"context"

	"github.com/elee1766/threadchat/src/aisdk"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Tool is a named capability the model may invoke.
type Tool interface {
	// GetType returns the tool type (always "function" for now)
	GetType() string

	GetName() string

	// GetDescription is the text shown to the model when it picks a tool.
	GetDescription() string

	// GetParameters returns the JSON schema of the call arguments.
	GetParameters() *jsonschema.Schema

	// Execute runs the call. Failures the model should see are returned as
	// an error payload with a nil error; a non-nil error means the tool
	// could not run at all.
	Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)
}
