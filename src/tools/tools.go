// Package tools assembles the toolbox the model is offered.
package tools

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elee1766/threadchat/src/agent"
	tool_calculator "github.com/elee1766/threadchat/src/tools/tool_calculator"
	tool_search "github.com/elee1766/threadchat/src/tools/tool_search"
	tool_stockprice "github.com/elee1766/threadchat/src/tools/tool_stockprice"
	tool_webfetch "github.com/elee1766/threadchat/src/tools/tool_webfetch"
)

// Tool name constants - re-exported from individual packages
const (
	CalculatorName = tool_calculator.Name
	SearchName     = tool_search.Name
	StockPriceName = tool_stockprice.Name
	WebFetchName   = tool_webfetch.Name
)

// DefaultEnabled are the tools offered when none are configured.
var DefaultEnabled = []string{SearchName, CalculatorName, StockPriceName}

// Names lists every tool the registry knows how to build.
func Names() []string {
	return []string{CalculatorName, StockPriceName, WebFetchName, SearchName}
}

// Options configures Registry.
type Options struct {
	Enabled    []string
	HTTPClient *http.Client
	Logger     *slog.Logger

	Search     tool_search.Config
	StockPrice tool_stockprice.Config
	WebFetch   tool_webfetch.Config
}

// Registry builds the toolbox for the enabled tools with logging and panic
// recovery middleware.
func Registry(opts Options) (*agent.DefaultToolbox, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "tools")

	enabled := opts.Enabled
	if len(enabled) == 0 {
		enabled = DefaultEnabled
	}

	tb := agent.NewToolbox[agent.Tool]()
	for _, name := range enabled {
		tool, err := build(name, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create tool %s: %w", name, err)
		}
		if err := tb.RegisterTool(tool); err != nil {
			return nil, err
		}
	}

	// Per-call timeouts are applied by the executor around ExecuteTool.
	tb.RegisterMiddleware(agent.LoggingMiddleware(logger))
	tb.RegisterMiddleware(agent.RecoverMiddleware())
	return tb, nil
}

func build(name string, opts Options, logger *slog.Logger) (agent.Tool, error) {
	switch name {
	case CalculatorName:
		return tool_calculator.Tool()
	case SearchName:
		cfg := opts.Search
		cfg.HTTPClient = orDefault(cfg.HTTPClient, opts.HTTPClient)
		cfg.Logger = logger
		return tool_search.Tool(cfg)
	case StockPriceName:
		cfg := opts.StockPrice
		cfg.HTTPClient = orDefault(cfg.HTTPClient, opts.HTTPClient)
		cfg.Logger = logger
		if cfg.APIKey == "" {
			logger.Warn("stock price tool enabled without an Alpha Vantage API key")
		}
		return tool_stockprice.Tool(cfg), nil
	case WebFetchName:
		cfg := opts.WebFetch
		cfg.HTTPClient = orDefault(cfg.HTTPClient, opts.HTTPClient)
		cfg.Logger = logger
		return tool_webfetch.Tool(cfg)
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

func orDefault(c, fallback *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return fallback
}
