// Package app wires configuration, storage, the model client, tools and the
// turn executor into the caller-facing chat surface.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/elee1766/threadchat/src/agent"
	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/config"
	"github.com/elee1766/threadchat/src/executor"
	"github.com/elee1766/threadchat/src/storage"
	"github.com/elee1766/threadchat/src/tools"
	tool_search "github.com/elee1766/threadchat/src/tools/tool_search"
	tool_stockprice "github.com/elee1766/threadchat/src/tools/tool_stockprice"
	"github.com/google/uuid"
)

// App represents the main application with all services
type App struct {
	Config   *config.Config
	Store    storage.Saver
	Model    aisdk.ModelClient
	Toolbox  *agent.DefaultToolbox
	Executor *executor.Service
	Logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

type options struct {
	store      storage.Saver
	model      aisdk.ModelClient
	httpClient *http.Client
	callbacks  *executor.Callbacks
}

// Option customizes New.
type Option func(*options)

// WithStore uses s instead of opening the configured store. The App takes
// ownership and closes it.
func WithStore(s storage.Saver) Option {
	return func(o *options) { o.store = s }
}

// WithModel uses m instead of building a client for the configured provider.
func WithModel(m aisdk.ModelClient) Option {
	return func(o *options) { o.model = m }
}

// WithHTTPClient sets the client used by model clients and tools.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCallbacks observes tool activity of every turn.
func WithCallbacks(cb *executor.Callbacks) Option {
	return func(o *options) { o.callbacks = cb }
}

// New creates a new App instance with all services initialized
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	model := o.model
	if model == nil {
		var err error
		model, err = NewModelClient(cfg.API, o.httpClient, logger)
		if err != nil {
			return nil, err
		}
	}

	toolbox, err := tools.Registry(tools.Options{
		Enabled:    cfg.Tools.Enabled,
		HTTPClient: o.httpClient,
		Logger:     logger,
		Search: tool_search.Config{
			Region:     cfg.Tools.SearchRegion,
			MaxResults: cfg.Tools.SearchMaxResults,
		},
		StockPrice: tool_stockprice.Config{
			APIKey: cfg.Tools.AlphaVantageAPIKey,
		},
	})
	if err != nil {
		return nil, &config.Error{Source: "tools", Err: err}
	}

	store := o.store
	if store == nil {
		store, err = OpenStore(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}

	exec, err := executor.NewService(executor.ServiceConfig{
		Store:            store,
		Model:            model,
		Toolbox:          toolbox,
		Logger:           logger,
		SystemPrompt:     cfg.Agent.SystemPrompt,
		MaxRounds:        cfg.Agent.MaxRounds,
		ModelTimeout:     cfg.Agent.ModelTimeout.Std(),
		ToolTimeout:      cfg.Agent.ToolTimeout.Std(),
		MaxParallelTools: cfg.Agent.MaxParallelTools,
		Callbacks:        o.callbacks,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	info := model.GetModelInfo()
	logger.Debug("app initialized", "provider", info.Provider, "model", info.ID, "tools", len(toolbox.Tools()))

	return &App{
		Config:   cfg,
		Store:    store,
		Model:    model,
		Toolbox:  toolbox,
		Executor: exec,
		Logger:   logger,
		active:   make(map[string]struct{}),
	}, nil
}

// Send runs one turn and returns its full result.
func (a *App) Send(ctx context.Context, threadID, text string) (*executor.TurnResult, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	release, ok := a.acquire(threadID)
	if !ok {
		return nil, ErrThreadBusy
	}
	defer release()

	return a.Executor.RunTurn(ctx, threadID, text)
}

// SendMessage runs one turn and returns the assistant's reply text.
func (a *App) SendMessage(ctx context.Context, threadID, text string) (string, error) {
	result, err := a.Send(ctx, threadID, text)
	if err != nil {
		return "", err
	}
	return result.Reply, nil
}

func (a *App) acquire(threadID string) (func(), bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.active[threadID]; busy {
		return nil, false
	}
	a.active[threadID] = struct{}{}
	return func() {
		a.mu.Lock()
		delete(a.active, threadID)
		a.mu.Unlock()
	}, true
}

func (a *App) ListThreads(ctx context.Context) ([]string, error) {
	return a.Store.ListThreads(ctx)
}

func (a *App) History(ctx context.Context, threadID string) ([]*aisdk.Message, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	return a.Store.Load(ctx, threadID)
}

func (a *App) Checkpoints(ctx context.Context, threadID string) ([]storage.Checkpoint, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	return a.Store.Checkpoints(ctx, threadID)
}

// NewThreadID returns a fresh random thread id.
func (a *App) NewThreadID() string {
	return uuid.NewString()
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
