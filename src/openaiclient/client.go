// Package openaiclient adapts the official OpenAI SDK to aisdk.ModelClient.
package openaiclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Config configures the SDK client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is bound to a single model.
type Client struct {
	client openai.Client
	model  *aisdk.ModelInfo
	logger *slog.Logger
}

var _ aisdk.ModelClient = (*Client)(nil)

// New creates a client. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  &aisdk.ModelInfo{ID: cfg.Model, Provider: "openai"},
		logger: logger.With("component", "openai_client"),
	}, nil
}

func (c *Client) GetModelInfo() *aisdk.ModelInfo {
	return c.model
}

// CreateChatCompletion sends req to the bound model. req.Model is ignored.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	params, err := buildParams(c.model.ID, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending chat completion request", "model", c.model.ID, "messages", len(params.Messages), "tools", len(params.Tools))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}
	return convertResponse(resp), nil
}

func buildParams(model string, req *aisdk.ChatCompletionRequest) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: ConvertMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	tools, err := ConvertTools(req.Tools)
	if err != nil {
		return params, err
	}
	params.Tools = tools
	return params, nil
}

// ConvertMessages maps history onto SDK message params. Tool results keep
// their tool_call_id so the API can pair them with the request.
func ConvertMessages(msgs []*aisdk.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case aisdk.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case aisdk.RoleAssistant:
			if !msg.HasToolCalls() {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.ArgumentsString(),
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case aisdk.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// ConvertTools renders chat tools as SDK function tools.
func ConvertTools(tools []*aisdk.ChatTool) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params, err := t.Function.ParametersMap()
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameters of tool %s: %w", t.Function.Name, err)
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Function.Name,
			Description: openai.String(t.Function.Description),
			Parameters:  openai.FunctionParameters(params),
		}))
	}
	return out, nil
}

func convertResponse(resp *openai.ChatCompletion) *aisdk.ChatCompletionResponse {
	out := &aisdk.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  "chat.completion",
		Created: resp.Created,
		Model:   resp.Model,
		Usage: aisdk.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, choice := range resp.Choices {
		msg := aisdk.Message{Role: aisdk.RoleAssistant, Content: choice.Message.Content}
		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, aisdk.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: aisdk.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: aisdk.RawArguments(tc.Function.Arguments),
				},
			})
		}
		out.Choices = append(out.Choices, aisdk.Choice{
			Index:        int(choice.Index),
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		})
	}
	return out
}
