package groqclient

import (
	"context"

	"github.com/elee1766/threadchat/src/aisdk"
)

var _ aisdk.ModelClient = (*ModelClient)(nil)

// ModelClient represents a client bound to a specific model
type ModelClient struct {
	client *Client
	model  *aisdk.ModelInfo
}

// Model binds the client to modelName, DefaultModel when empty.
func (c *Client) Model(modelName string) *ModelClient {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ModelClient{
		client: c,
		model:  &aisdk.ModelInfo{ID: modelName, Provider: c.config.Provider},
	}
}

// CreateChatCompletion creates a chat completion with the bound model.
// req is not modified.
func (mc *ModelClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	bound := *req
	bound.Model = mc.model.ID
	return mc.client.createChatCompletion(ctx, &bound)
}

// GetModelInfo returns the model information
func (mc *ModelClient) GetModelInfo() *aisdk.ModelInfo {
	return mc.model
}
