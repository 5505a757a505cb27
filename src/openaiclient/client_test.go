package openaiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/schema"
	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"
)

const completion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"logprobs": null,
		"message": {
			"role": "assistant",
			"content": null,
			"refusal": null,
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "get_stock_price", "arguments": "{\"symbol\":\"IBM\"}"}
			}]
		}
	}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
}`

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, &aisdk.ModelInfo{ID: DefaultModel, Provider: "openai"}, c.GetModelInfo())
}

func TestCreateChatCompletion(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	params := schema.CreateObjectSchema(map[string]*jsonschema.Schema{
		"symbol": schema.CreateStringSchema("Ticker symbol"),
	}, []string{"symbol"})
	req := &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{
			{Role: aisdk.RoleSystem, Content: "sys"},
			{Role: aisdk.RoleUser, Content: "price of IBM?"},
			{Role: aisdk.RoleAssistant, ToolCalls: []aisdk.ToolCall{{ID: "call_0", Function: aisdk.FunctionCall{Name: "get_stock_price", Arguments: json.RawMessage(`{"symbol":"AAPL"}`)}}}},
			{Role: aisdk.RoleTool, ToolCallID: "call_0", Name: "get_stock_price", Content: `{"ok":true}`},
		},
		Tools: []*aisdk.ChatTool{{Type: "function", Function: aisdk.ChatToolFunction{
			Name: "get_stock_price", Description: "Quote", Parameters: params,
		}}},
	}

	resp, err := c.CreateChatCompletion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assistant := msgs[2].(map[string]any)
	call := assistant["tool_calls"].([]any)[0].(map[string]any)
	assert.Equal(t, `{"symbol":"AAPL"}`, call["function"].(map[string]any)["arguments"])
	tool := msgs[3].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_0", tool["tool_call_id"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_stock_price", tools[0].(map[string]any)["function"].(map[string]any)["name"])

	msg, err := resp.FirstMessage()
	require.NoError(t, err)
	assert.Equal(t, aisdk.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.JSONEq(t, `{"symbol":"IBM"}`, string(msg.ToolCalls[0].Function.Arguments))
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, "tool_calls", resp.Choices[0].FinishReason)
}

func TestCreateChatCompletionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{{Role: aisdk.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var apiErr *openai.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestConvertToolsEmpty(t *testing.T) {
	tools, err := ConvertTools(nil)
	require.NoError(t, err)
	assert.Nil(t, tools)
}
