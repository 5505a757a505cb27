package app

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/anthropicclient"
	"github.com/elee1766/threadchat/src/config"
	"github.com/elee1766/threadchat/src/executor"
	"github.com/elee1766/threadchat/src/groqclient"
	"github.com/elee1766/threadchat/src/openaiclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel answers with respond; it is safe for concurrent use.
type scriptedModel struct {
	mu      sync.Mutex
	calls   int
	respond func(req *aisdk.ChatCompletionRequest) *aisdk.Message
}

func (m *scriptedModel) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	msg := m.respond(req)
	if msg == nil {
		return nil, errors.New("model unavailable")
	}
	return &aisdk.ChatCompletionResponse{Choices: []aisdk.Choice{{Message: *msg}}}, nil
}

func (m *scriptedModel) GetModelInfo() *aisdk.ModelInfo {
	return &aisdk.ModelInfo{ID: "scripted", Provider: "test"}
}

// calculatorModel requests one calculator call, then echoes the tool result.
func calculatorModel() *scriptedModel {
	return &scriptedModel{respond: func(req *aisdk.ChatCompletionRequest) *aisdk.Message {
		last := req.Messages[len(req.Messages)-1]
		if last.Role == aisdk.RoleTool {
			return &aisdk.Message{Role: aisdk.RoleAssistant, Content: "result: " + last.Content}
		}
		return &aisdk.Message{Role: aisdk.RoleAssistant, ToolCalls: []aisdk.ToolCall{{
			ID: "call_1", Type: "function",
			Function: aisdk.FunctionCall{Name: "calculator", Arguments: json.RawMessage(`{"first_num":4,"second_num":2,"operation":"mul"}`)},
		}}}
	}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "chatbot.db")
	cfg.Tools.Enabled = []string{"calculator"}
	return cfg
}

func newTestApp(t *testing.T, model aisdk.ModelClient, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), nil, append([]Option{WithModel(model)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSendMessageRunsTools(t *testing.T) {
	var seen []string
	cb := &executor.Callbacks{OnToolCall: func(c aisdk.ToolCall) { seen = append(seen, c.Function.Name) }}
	a := newTestApp(t, calculatorModel(), WithCallbacks(cb))
	ctx := context.Background()

	reply, err := a.SendMessage(ctx, "t1", "what is 4*2?")
	require.NoError(t, err)
	assert.Contains(t, reply, `"result":8`)
	assert.Equal(t, []string{"calculator"}, seen)

	history, err := a.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, aisdk.RoleUser, history[0].Role)
	assert.True(t, history[1].HasToolCalls())
	assert.Equal(t, aisdk.RoleTool, history[2].Role)
	assert.Equal(t, reply, history[3].Content)

	threads, err := a.ListThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, threads)

	cps, err := a.Checkpoints(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, cps, 3)
}

func TestSendMessageValidation(t *testing.T) {
	model := calculatorModel()
	a := newTestApp(t, model)
	ctx := context.Background()

	_, err := a.SendMessage(ctx, "", "hi")
	assert.ErrorIs(t, err, ErrThreadIDRequired)

	_, err = a.SendMessage(ctx, "t1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = a.History(ctx, "")
	assert.ErrorIs(t, err, ErrThreadIDRequired)
	_, err = a.Checkpoints(ctx, "")
	assert.ErrorIs(t, err, ErrThreadIDRequired)

	assert.Equal(t, 0, model.calls)
}

func TestConcurrentTurnOnSameThreadIsBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	model := &scriptedModel{respond: func(req *aisdk.ChatCompletionRequest) *aisdk.Message {
		once.Do(func() { close(started) })
		<-release
		return &aisdk.Message{Role: aisdk.RoleAssistant, Content: "done"}
	}}
	a := newTestApp(t, model)
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := a.SendMessage(ctx, "t1", "first")
		errs <- err
	}()
	<-started

	_, err := a.SendMessage(ctx, "t1", "second")
	assert.ErrorIs(t, err, ErrThreadBusy)

	close(release)
	require.NoError(t, <-errs)

	// the thread is free again once the turn ends
	reply, err := a.SendMessage(ctx, "t1", "third")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)

	history, err := a.History(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestDistinctThreadsRunConcurrently(t *testing.T) {
	a := newTestApp(t, calculatorModel())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := a.SendMessage(ctx, id, "4*2 for "+id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c"} {
		history, err := a.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, "4*2 for "+id, history[0].Content)
	}
}

func TestResumeAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	model := &scriptedModel{respond: func(req *aisdk.ChatCompletionRequest) *aisdk.Message {
		return &aisdk.Message{Role: aisdk.RoleAssistant, Content: "seen " + string(rune('0'+len(req.Messages)))}
	}}

	a, err := New(ctx, cfg, nil, WithModel(model))
	require.NoError(t, err)
	_, err = a.SendMessage(ctx, "t1", "hello")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = New(ctx, cfg, nil, WithModel(model))
	require.NoError(t, err)
	defer a.Close()

	reply, err := a.SendMessage(ctx, "t1", "again")
	require.NoError(t, err)
	assert.Equal(t, "seen 3", reply, "prior turn is part of the history")
}

func TestModelErrorSurfaces(t *testing.T) {
	a := newTestApp(t, &scriptedModel{respond: func(*aisdk.ChatCompletionRequest) *aisdk.Message { return nil }})

	_, err := a.SendMessage(context.Background(), "t1", "hi")
	var modelErr *executor.ModelError
	assert.ErrorAs(t, err, &modelErr)
}

func TestNewThreadID(t *testing.T) {
	a := newTestApp(t, calculatorModel())
	id := a.NewThreadID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, a.NewThreadID())
}

func TestNewRejectsUnknownTool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tools.Enabled = []string{"teleport"}

	_, err := New(context.Background(), cfg, nil, WithModel(calculatorModel()))
	var cerr *config.Error
	assert.ErrorAs(t, err, &cerr)
}

func TestNewModelClient(t *testing.T) {
	_, err := NewModelClient(config.APIConfig{Provider: config.ProviderGroq}, nil, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	var cerr *config.Error
	assert.ErrorAs(t, err, &cerr)

	_, err = NewModelClient(config.APIConfig{Provider: "bogus", APIKey: "k"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	tests := []struct {
		provider string
		check    func(t *testing.T, m aisdk.ModelClient)
	}{
		{config.ProviderGroq, func(t *testing.T, m aisdk.ModelClient) {
			assert.IsType(t, &groqclient.ModelClient{}, m)
			assert.Equal(t, groqclient.DefaultModel, m.GetModelInfo().ID)
		}},
		{config.ProviderOpenRouter, func(t *testing.T, m aisdk.ModelClient) {
			assert.Equal(t, "openrouter", m.GetModelInfo().Provider)
		}},
		{config.ProviderOpenAI, func(t *testing.T, m aisdk.ModelClient) {
			assert.IsType(t, &openaiclient.Client{}, m)
		}},
		{config.ProviderAnthropic, func(t *testing.T, m aisdk.ModelClient) {
			assert.IsType(t, &anthropicclient.Client{}, m)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			m, err := NewModelClient(config.APIConfig{Provider: tt.provider, APIKey: "k", Timeout: config.Duration(time.Second)}, nil, nil)
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}
