package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
)

// Agent binds a model to a toolbox and a system prompt.
type Agent struct {
	SystemPrompt string
	Model        aisdk.ModelClient
	Toolbox      *DefaultToolbox
	Logger       *slog.Logger
}

// Request builds the completion request for history. The system prompt is
// prepended here and never becomes part of history.
func (a *Agent) Request(history []*aisdk.Message) *aisdk.ChatCompletionRequest {
	messages := make([]*aisdk.Message, 0, len(history)+1)
	if a.SystemPrompt != "" {
		messages = append(messages, &aisdk.Message{Role: aisdk.RoleSystem, Content: a.SystemPrompt})
	}
	messages = append(messages, history...)

	req := &aisdk.ChatCompletionRequest{Messages: messages}
	if info := a.Model.GetModelInfo(); info != nil {
		req.Model = info.ID
	}
	if a.Toolbox != nil {
		req.Tools = ToChatTools(a.Toolbox.Tools())
		if len(req.Tools) > 0 {
			req.ToolChoice = "auto"
		}
	}
	return req
}

// Complete sends history to the model and returns its message.
func (a *Agent) Complete(ctx context.Context, history []*aisdk.Message) (*aisdk.Message, error) {
	start := time.Now()
	response, err := a.Model.CreateChatCompletion(ctx, a.Request(history))
	if err != nil {
		return nil, err
	}
	msg, err := response.FirstMessage()
	if err != nil {
		return nil, err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if a.Logger != nil {
		a.Logger.Debug("model responded",
			"model", response.Model,
			"tool_calls", len(msg.ToolCalls),
			"prompt_tokens", response.Usage.PromptTokens,
			"completion_tokens", response.Usage.CompletionTokens,
			"duration", time.Since(start))
	}
	return msg, nil
}
