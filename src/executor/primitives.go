package executor

import (
	"github.com/elee1766/threadchat/src/aisdk"
)

// State is the position of a turn in its state machine.
type State int

const (
	// StateAwaitingModel means the next step is a model call
	StateAwaitingModel State = iota
	// StateAwaitingTool means the model asked for tools that have not run yet
	StateAwaitingTool
	// StateDone means the model produced a final reply
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingTool:
		return "awaiting_tool"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is the result of one model call: either a Reply or ToolRequests.
type Outcome interface {
	// Message is the assistant message to append.
	Message() *aisdk.Message
	outcome()
}

// Reply is a final answer with no tool calls.
type Reply struct {
	Msg *aisdk.Message
}

func (r Reply) Message() *aisdk.Message { return r.Msg }
func (Reply) outcome()                  {}

// ToolRequests asks for Calls to be executed before the model continues.
type ToolRequests struct {
	Msg   *aisdk.Message
	Calls []aisdk.ToolCall
}

func (r ToolRequests) Message() *aisdk.Message { return r.Msg }
func (ToolRequests) outcome()                  {}

// TurnResult summarizes a completed or aborted turn.
type TurnResult struct {
	ThreadID string
	// Reply is the content of the final assistant message.
	Reply string
	// Appended holds every message committed during the turn, in order.
	Appended []*aisdk.Message
	// Rounds counts executed tool rounds.
	Rounds int
}
