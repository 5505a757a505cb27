package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/anthropicclient"
	"github.com/elee1766/threadchat/src/config"
	"github.com/elee1766/threadchat/src/groqclient"
	"github.com/elee1766/threadchat/src/openaiclient"
	"github.com/elee1766/threadchat/src/storage"
	"github.com/elee1766/threadchat/src/storage/postgres"
)

// NewModelClient builds the client for cfg.Provider bound to cfg.Model, or
// to the provider's default model when empty.
func NewModelClient(cfg config.APIConfig, httpClient *http.Client, logger *slog.Logger) (aisdk.ModelClient, error) {
	if cfg.APIKey == "" {
		return nil, &config.Error{
			Source: "api",
			Err:    fmt.Errorf("%w: set %s or api.api_key", ErrMissingAPIKey, config.APIKeyEnvVar(cfg.Provider)),
		}
	}

	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenRouter:
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == config.ProviderOpenRouter {
			baseURL = groqclient.OpenRouterBaseURL
		}
		client, err := groqclient.NewClient(groqclient.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    baseURL,
			Provider:   cfg.Provider,
			Logger:     logger,
			Timeout:    cfg.Timeout.Std(),
			RetryCount: cfg.MaxRetries,
			HTTPClient: httpClient,
			SiteURL:    cfg.SiteURL,
			SiteName:   cfg.SiteName,
		})
		if err != nil {
			return nil, err
		}
		return client.Model(cfg.Model), nil
	case config.ProviderOpenAI:
		client, err := openaiclient.New(openaiclient.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderAnthropic:
		client, err := anthropicclient.New(anthropicclient.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, &config.Error{Source: "api", Err: fmt.Errorf("%w %q", ErrUnknownProvider, cfg.Provider)}
	}
}

// OpenStore opens PostgreSQL when a URL is configured and the SQLite file
// otherwise.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Saver, error) {
	if cfg.PostgresURL != "" {
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	db, err := storage.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	return db, nil
}
