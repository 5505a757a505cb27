// Package aisdk holds the provider-neutral message and tool-call types shared by
// the store, the turn executor and every model client.
package aisdk

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is set on tool results to identify the function
	Name string `json:"name,omitempty"`
	// ToolCallID is set on tool results to reference the original call
	ToolCallID string `json:"tool_call_id,omitempty"`
	// IsError marks a tool result that carries an error payload.
	IsError bool `json:"is_error,omitempty"`
	// ToolCalls contains function calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// NewUserMessage returns a user message stamped with the current time.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// NewToolResultMessage builds the tool-role message answering call.
func NewToolResultMessage(call ToolCall, resp *ToolResponse) *Message {
	return &Message{
		Role:       RoleTool,
		Content:    string(resp.Content),
		Name:       call.Function.Name,
		ToolCallID: call.ID,
		IsError:    resp.IsError,
		CreatedAt:  time.Now(),
	}
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// ToolCall represents a function call request from the model (OpenAI format).
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // Always "function" for now
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// RawArguments converts the string form providers send into Arguments.
// Empty input becomes {}; anything that is not valid JSON is kept as a JSON
// string so it still round-trips through storage and fails at decode time in
// the tool.
func RawArguments(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}

// ArgumentsString returns Arguments in the string form providers expect.
func (f FunctionCall) ArgumentsString() string {
	if len(f.Arguments) == 0 {
		return "{}"
	}
	return string(f.Arguments)
}

// ToolResponse is the payload a tool returns. Content is always JSON; failures
// carry an {"error": "..."} object and IsError set.
type ToolResponse struct {
	Content []byte `json:"content"`
	IsError bool   `json:"is_error"`
}

// ErrorResponse builds the structured error payload delivered to the model.
func ErrorResponse(message string) *ToolResponse {
	content, _ := json.Marshal(map[string]string{"error": message})
	return &ToolResponse{Content: content, IsError: true}
}

// ChatCompletionRequest represents a request to the chat completions endpoint.
type ChatCompletionRequest struct {
	Model       string      `json:"model"`
	Messages    []*Message  `json:"messages"`
	Temperature *float64    `json:"temperature,omitempty"`
	MaxTokens   *int        `json:"max_tokens,omitempty"`
	Tools       []*ChatTool `json:"tools,omitempty"`
	ToolChoice  string      `json:"tool_choice,omitempty"` // "auto", "none", or specific tool
}

// ChatCompletionResponse represents a response from the chat completions endpoint.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo identifies the model a client is bound to.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}
