// Package anthropicclient adapts the Anthropic Messages API to aisdk.ModelClient.
package anthropicclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/elee1766/threadchat/src/aisdk"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = anthropic.ModelClaudeSonnet4_5_20250929
	DefaultMaxTokens = 1024
)

// Config configures the SDK client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is bound to a single model.
type Client struct {
	client    anthropic.Client
	model     *aisdk.ModelInfo
	maxTokens int64
	logger    *slog.Logger
}

var _ aisdk.ModelClient = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = string(DefaultModel)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
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
		client:    anthropic.NewClient(opts...),
		model:     &aisdk.ModelInfo{ID: cfg.Model, Provider: "anthropic"},
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "anthropic_client"),
	}, nil
}

func (c *Client) GetModelInfo() *aisdk.ModelInfo {
	return c.model
}

// CreateChatCompletion sends req to the bound model. System messages become
// the system parameter and tool results are sent as tool_result blocks.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	messages, system := ConvertMessages(req.Messages)
	tools, err := ConvertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	maxTokens := c.maxTokens
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model.ID),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	c.logger.Debug("sending messages request", "model", c.model.ID, "messages", len(messages), "tools", len(tools))
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Anthropic request failed: %w", err)
	}
	return convertResponse(msg), nil
}

// ConvertMessages splits history into system blocks and messages. Adjacent
// tool results are merged into one user message, as the API requires.
func ConvertMessages(msgs []*aisdk.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var results []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if msg.Role != aisdk.RoleTool {
			flush()
		}
		switch msg.Role {
		case aisdk.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case aisdk.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, aisdk.RawArguments(tc.Function.ArgumentsString()), tc.Function.Name))
			}
			// the API rejects empty text blocks
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case aisdk.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	flush()
	return out, system
}

// ConvertTools renders chat tools as Anthropic tool params.
func ConvertTools(tools []*aisdk.ChatTool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params, err := t.Function.ParametersMap()
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameters of tool %s: %w", t.Function.Name, err)
		}
		inputSchema := anthropic.ToolInputSchemaParam{Properties: params["properties"]}
		if req, ok := params["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}
		tool := anthropic.ToolUnionParamOfTool(inputSchema, t.Function.Name)
		if t.Function.Description != "" {
			tool.OfTool.Description = anthropic.String(t.Function.Description)
		}
		out = append(out, tool)
	}
	return out, nil
}

func convertResponse(msg *anthropic.Message) *aisdk.ChatCompletionResponse {
	out := aisdk.Message{Role: aisdk.RoleAssistant}
	var text []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, v.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, aisdk.ToolCall{
				ID:       v.ID,
				Type:     "function",
				Function: aisdk.FunctionCall{Name: v.Name, Arguments: aisdk.RawArguments(string(v.Input))},
			})
		}
	}
	out.Content = strings.Join(text, "")

	return &aisdk.ChatCompletionResponse{
		ID:     msg.ID,
		Object: "message",
		Model:  string(msg.Model),
		Choices: []aisdk.Choice{{
			Message:      out,
			FinishReason: finishReason(string(msg.StopReason)),
		}},
		Usage: aisdk.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// finishReason maps stop reasons onto the chat completions vocabulary.
func finishReason(stop string) string {
	switch stop {
	case "tool_use":
		return "tool_calls"
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	default:
		return stop
	}
}
