package executor

import (
	"github.com/elee1766/threadchat/src/aisdk"
)

// Callbacks observe tool dispatch. Both run on the turn's goroutine: every
// OnToolCall of a round fires before dispatch, every OnToolResult after the
// whole round has finished, in request order.
type Callbacks struct {
	// OnToolCall is called before executing a tool
	OnToolCall func(call aisdk.ToolCall)

	// OnToolResult is called after tool execution
	OnToolResult func(call aisdk.ToolCall, result *aisdk.ToolResponse)
}

// ToolCall calls the OnToolCall callback if it's set
func (c *Callbacks) ToolCall(call aisdk.ToolCall) {
	if c == nil || c.OnToolCall == nil {
		return
	}
	c.OnToolCall(call)
}

// ToolResult calls the OnToolResult callback if it's set
func (c *Callbacks) ToolResult(call aisdk.ToolCall, result *aisdk.ToolResponse) {
	if c == nil || c.OnToolResult == nil {
		return
	}
	c.OnToolResult(call, result)
}
