package aisdk

import (
	"context"
	"errors"
)

// ErrNoChoices is returned when a completion response carries no choices.
var ErrNoChoices = errors.New("no choices in response")

// ModelClient represents a client for a specific model
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
	GetModelInfo() *ModelInfo
}

// FirstMessage returns the message of the first choice.
func (r *ChatCompletionResponse) FirstMessage() (*Message, error) {
	if r == nil || len(r.Choices) == 0 {
		return nil, ErrNoChoices
	}
	msg := r.Choices[0].Message
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}
	return &msg, nil
}
