package executor

import (
	"io"
	"log/slog"
	"time"

	"github.com/elee1766/threadchat/src/agent"
	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/storage"
)

const (
	DefaultMaxRounds    = 8
	DefaultModelTimeout = 60 * time.Second
	DefaultToolTimeout  = 30 * time.Second
)

// Service runs turns against one store, model and toolbox.
type Service struct {
	store        storage.Saver
	agent        *agent.Agent
	toolbox      *agent.DefaultToolbox
	logger       *slog.Logger
	maxRounds    int
	modelTimeout time.Duration
	toolTimeout  time.Duration
	maxParallel  int
	callbacks    *Callbacks
}

// ServiceConfig holds configuration for creating a new Service
type ServiceConfig struct {
	Store   storage.Saver
	Model   aisdk.ModelClient
	Toolbox *agent.DefaultToolbox
	Logger  *slog.Logger

	// SystemPrompt is sent ahead of every request and never stored.
	SystemPrompt string
	// MaxRounds bounds tool rounds per turn.
	MaxRounds    int
	ModelTimeout time.Duration
	ToolTimeout  time.Duration
	// MaxParallelTools caps concurrent tool executions in one round. Zero
	// means unbounded.
	MaxParallelTools int

	Callbacks *Callbacks
}

// NewService creates a new turn service
func NewService(config ServiceConfig) (*Service, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	if config.Model == nil {
		return nil, ErrModelClientRequired
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Toolbox == nil {
		config.Toolbox = agent.NewToolbox[agent.Tool]()
	}
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.ModelTimeout <= 0 {
		config.ModelTimeout = DefaultModelTimeout
	}
	if config.ToolTimeout <= 0 {
		config.ToolTimeout = DefaultToolTimeout
	}

	logger := config.Logger.With("component", "executor")
	return &Service{
		store: config.Store,
		agent: &agent.Agent{
			SystemPrompt: config.SystemPrompt,
			Model:        config.Model,
			Toolbox:      config.Toolbox,
			Logger:       logger,
		},
		toolbox:      config.Toolbox,
		logger:       logger,
		maxRounds:    config.MaxRounds,
		modelTimeout: config.ModelTimeout,
		toolTimeout:  config.ToolTimeout,
		maxParallel:  config.MaxParallelTools,
		callbacks:    config.Callbacks,
	}, nil
}

// Toolbox returns the tools offered to the model.
func (s *Service) Toolbox() *agent.DefaultToolbox {
	return s.toolbox
}

// Model returns the model client.
func (s *Service) Model() aisdk.ModelClient {
	return s.agent.Model
}
