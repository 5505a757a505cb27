package groqclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Presets for the OpenAI-compatible endpoints this client is used against.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	DefaultModel = "llama-3.1-8b-instant"
)

// Config holds configuration for the client
type Config struct {
	APIKey     string        // Bearer token
	BaseURL    string        // Base URL of the chat completions API
	Provider   string        // Provider name reported by GetModelInfo
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Number of attempts for failed requests
	RetryDelay time.Duration // Delay between retries, multiplied by attempt
	HTTPClient *http.Client  // Overrides the default client when set
	SiteURL    string        // OpenRouter ranking header
	SiteName   string        // OpenRouter ranking header
}
