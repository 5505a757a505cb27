package main

import (
	"log/slog"

	"github.com/elee1766/threadchat/src/app"
	"github.com/elee1766/threadchat/src/config"
	"github.com/elee1766/threadchat/src/executor"
)

// loadConfig resolves the configuration from file, .env, environment and flags.
func (cli *CLI) loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: cli.Config,
		DotEnvFile: cli.EnvFile,
		Overrides: config.Overrides{
			Provider:  cli.Provider,
			Model:     cli.Model,
			DBPath:    cli.DB,
			LogLevel:  cli.LogLevel,
			LogFormat: cli.LogFormat,
		},
	})
}

// setup loads the configuration and builds the logger. Interactive
// commands log at warn unless a level is given explicitly.
func (cli *CLI) setup(rt *Runtime, interactive bool) (*config.Config, *slog.Logger, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if interactive && cli.LogLevel == "" {
		level = "warn"
	}
	return cfg, createLogger(rt.Stderr, level, cfg.Log.Format, cli.NoColor), nil
}

// openApp builds the full application.
func (cli *CLI) openApp(rt *Runtime, interactive bool, callbacks *executor.Callbacks) (*app.App, error) {
	cfg, logger, err := cli.setup(rt, interactive)
	if err != nil {
		return nil, err
	}
	return app.New(rt.Ctx, cfg, logger, app.WithCallbacks(callbacks))
}
