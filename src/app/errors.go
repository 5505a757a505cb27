package app

import (
	"errors"

	"github.com/elee1766/threadchat/src/executor"
)

var (
	// ErrThreadBusy is returned when a turn is already running on the thread.
	ErrThreadBusy = errors.New("thread is busy with another turn")

	// ErrEmptyMessage rejects blank user input.
	ErrEmptyMessage = errors.New("message is empty")

	ErrThreadIDRequired = executor.ErrThreadIDRequired

	// ErrMissingAPIKey means the selected provider has no key configured.
	ErrMissingAPIKey = errors.New("API key is not configured")

	// ErrUnknownProvider means api.provider names no known client.
	ErrUnknownProvider = errors.New("unknown provider")
)
