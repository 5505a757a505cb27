package config

import (
	"fmt"
	"time"
)

// Config represents the complete configuration for threadchat
type Config struct {
	// Model provider configuration
	API APIConfig `json:"api" toml:"api"`

	// Turn executor settings
	Agent AgentConfig `json:"agent" toml:"agent"`

	// Conversation store
	Storage StorageConfig `json:"storage" toml:"storage"`

	// Tool registry and per-tool settings
	Tools ToolsConfig `json:"tools" toml:"tools"`

	// HTTP API settings for `threadchat serve`
	Server ServerConfig `json:"server" toml:"server"`

	Log LogConfig `json:"log" toml:"log"`
}

// APIConfig selects and configures the chat model provider.
type APIConfig struct {
	Provider   string   `json:"provider" toml:"provider" validate:"required,provider"`
	Model      string   `json:"model,omitempty" toml:"model"`
	BaseURL    string   `json:"base_url,omitempty" toml:"base_url" validate:"omitempty,url"`
	APIKey     string   `json:"api_key,omitempty" toml:"api_key"`
	Timeout    Duration `json:"timeout,omitempty" toml:"timeout" validate:"gte=0"`
	MaxRetries int      `json:"max_retries,omitempty" toml:"max_retries" validate:"gte=0,lte=10"`

	// OpenRouter ranking headers
	SiteURL  string `json:"site_url,omitempty" toml:"site_url"`
	SiteName string `json:"site_name,omitempty" toml:"site_name"`
}

// AgentConfig configures the turn executor.
type AgentConfig struct {
	SystemPrompt     string   `json:"system_prompt,omitempty" toml:"system_prompt"`
	MaxRounds        int      `json:"max_rounds" toml:"max_rounds" validate:"gte=1,lte=100"`
	ModelTimeout     Duration `json:"model_timeout" toml:"model_timeout" validate:"gte=0"`
	ToolTimeout      Duration `json:"tool_timeout" toml:"tool_timeout" validate:"gte=0"`
	MaxParallelTools int      `json:"max_parallel_tools,omitempty" toml:"max_parallel_tools" validate:"gte=0"`
}

// StorageConfig selects the conversation store. PostgresURL wins over Path
// when set.
type StorageConfig struct {
	Path        string `json:"path" toml:"path"`
	PostgresURL string `json:"postgres_url,omitempty" toml:"postgres_url"`
}

// ToolsConfig configures the tool registry.
type ToolsConfig struct {
	Enabled            []string `json:"enabled" toml:"enabled"`
	AlphaVantageAPIKey string   `json:"alphavantage_api_key,omitempty" toml:"alphavantage_api_key"`
	SearchRegion       string   `json:"search_region,omitempty" toml:"search_region"`
	SearchMaxResults   int      `json:"search_max_results,omitempty" toml:"search_max_results" validate:"gte=0,lte=25"`
}

type ServerConfig struct {
	Addr        string   `json:"addr" toml:"addr" validate:"required"`
	CORSOrigins []string `json:"cors_origins,omitempty" toml:"cors_origins"`

	// RequestTimeout bounds each HTTP request including its turn. Zero
	// disables it.
	RequestTimeout Duration `json:"request_timeout" toml:"request_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `json:"level" toml:"level" validate:"log_level"`
	Format string `json:"format" toml:"format" validate:"log_format"`
}

// Duration is a time.Duration written as "60s" in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error reports a configuration source that could not be read or applied.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
