package config

import (
	"time"
)

const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// Providers lists the accepted values of api.provider.
var Providers = []string{ProviderGroq, ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic}

// DefaultConfig returns the configuration used when nothing overrides it.
// The model is left empty so each provider applies its own default.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider:   ProviderGroq,
			Timeout:    Duration(60 * time.Second),
			MaxRetries: 3,
		},
		Agent: AgentConfig{
			MaxRounds:    8,
			ModelTimeout: Duration(60 * time.Second),
			ToolTimeout:  Duration(30 * time.Second),
		},
		Storage: StorageConfig{
			Path: DefaultDatabasePath(),
		},
		Tools: ToolsConfig{
			Enabled:          []string{"web_search", "calculator", "get_stock_price"},
			SearchRegion:     "us-en",
			SearchMaxResults: 5,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			RequestTimeout: Duration(5 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// APIKeyEnvVar names the provider-specific environment variable holding the key.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}
