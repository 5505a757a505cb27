package groqclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/",
		RetryCount: 3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

const toolCallResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "llama-3.1-8b-instant",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"id": "call_abc",
				"type": "function",
				"function": {"name": "calculator", "arguments": "{\"first_num\":2,\"second_num\":3,\"operation\":\"add\"}"}
			}]
		}
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, GroqBaseURL, c.config.BaseURL)
	assert.Equal(t, "groq", c.config.Provider)
	assert.Equal(t, 3, c.config.RetryCount)

	info := c.Model("").GetModelInfo()
	assert.Equal(t, DefaultModel, info.ID)
	assert.Equal(t, "groq", info.Provider)
}

func TestCreateChatCompletionRequestShape(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(toolCallResponse))
	})

	req := &aisdk.ChatCompletionRequest{
		Model:      "ignored",
		ToolChoice: "auto",
		Messages: []*aisdk.Message{
			{Role: aisdk.RoleSystem, Content: "be brief"},
			{Role: aisdk.RoleUser, Content: "2+3?"},
			{Role: aisdk.RoleAssistant, ToolCalls: []aisdk.ToolCall{{
				ID:       "call_prev",
				Function: aisdk.FunctionCall{Name: "calculator", Arguments: json.RawMessage(`{"first_num":1}`)},
			}}},
			{Role: aisdk.RoleTool, Name: "calculator", ToolCallID: "call_prev", Content: `{"result":1}`},
		},
	}
	_, err := c.Model("llama-3.1-8b-instant").CreateChatCompletion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "ignored", req.Model, "request must not be mutated")
	assert.Equal(t, "llama-3.1-8b-instant", got["model"])
	assert.Equal(t, "auto", got["tool_choice"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 4)
	assistant := msgs[2].(map[string]any)
	call := assistant["tool_calls"].([]any)[0].(map[string]any)
	assert.Equal(t, "function", call["type"])
	fn := call["function"].(map[string]any)
	assert.Equal(t, `{"first_num":1}`, fn["arguments"], "arguments are sent as a JSON string")

	tool := msgs[3].(map[string]any)
	assert.Equal(t, "call_prev", tool["tool_call_id"])
	assert.Equal(t, "calculator", tool["name"])

	_, hasCreatedAt := msgs[1].(map[string]any)["created_at"]
	assert.False(t, hasCreatedAt)
}

func TestCreateChatCompletionParsesToolCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(toolCallResponse))
	})

	resp, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)

	msg, err := resp.FirstMessage()
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_abc", msg.ToolCalls[0].ID)
	assert.Equal(t, "calculator", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"first_num":2,"second_num":3,"operation":"add"}`, string(msg.ToolCalls[0].Function.Arguments))
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "tool_calls", resp.Choices[0].FinishReason)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Write([]byte(toolCallResponse))
	})

	_, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-Request-ID", "req-1")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, "Invalid API Key", apiErr.Message)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "req-1", apiErr.RequestID)
}

func TestRateLimitHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down","code":"rate_limit_exceeded"}}`))
			return
		}
		w.Write([]byte(toolCallResponse))
	})

	_, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := c.Model("m").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestContextCancelStopsRetry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.config.RetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Model("m").CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenRouterHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "threadchat", r.Header.Get("X-Title"))
		w.Write([]byte(toolCallResponse))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Provider: "openrouter", SiteURL: "https://example.com", SiteName: "threadchat"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.Model("x").GetModelInfo().Provider)

	_, err = c.Model("x").CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
}
