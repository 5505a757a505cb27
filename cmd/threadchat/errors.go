package main

import (
	"errors"

	"github.com/elee1766/threadchat/src/app"
	"github.com/elee1766/threadchat/src/config"
	"github.com/elee1766/threadchat/src/executor"
	"github.com/elee1766/threadchat/src/storage"
)

// Exit codes following standard conventions
const (
	ExitSuccess = 0 // Success
	ExitError   = 1 // General error
	ExitUsage   = 2 // Usage error
	ExitConfig  = 3 // Configuration error
	ExitStorage = 5 // Conversation store failure
	ExitModel   = 6 // Model provider failure
)

// ExitCode determines the appropriate exit code for an error
func ExitCode(err error) int {
	var cfgErr *config.Error
	var validationErr config.ValidationError
	var modelErr *executor.ModelError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr), errors.As(err, &validationErr):
		return ExitConfig
	case storage.IsStorageError(err):
		return ExitStorage
	case errors.As(err, &modelErr):
		return ExitModel
	case errors.Is(err, app.ErrEmptyMessage), errors.Is(err, app.ErrThreadIDRequired):
		return ExitUsage
	default:
		return ExitError
	}
}
