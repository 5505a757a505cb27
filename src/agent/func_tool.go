package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elee1766/threadchat/src/aisdk"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// FuncTool is a tool with a hand-written schema and a raw executor. Used when
// the result is passed through without a Go output type.
type FuncTool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Executor    ToolExecutor
}

func (t *FuncTool) GetType() string {
	return "function"
}

func (t *FuncTool) GetName() string {
	return t.Name
}

func (t *FuncTool) GetDescription() string {
	return t.Description
}

func (t *FuncTool) GetParameters() *jsonschema.Schema {
	return t.Parameters
}

// Execute runs the tool
func (t *FuncTool) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	if t.Executor == nil {
		return nil, fmt.Errorf("tool %s has no executor", t.GetName())
	}
	return t.Executor(ctx, call)
}

// MarshalJSON renders the tool as its wire declaration.
func (t *FuncTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToChatTool(t))
}

// Ensure FuncTool implements the Tool interface
var _ Tool = (*FuncTool)(nil)
