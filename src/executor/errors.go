package executor

import (
	"errors"
	"fmt"
)

var (
	// Config validation errors
	ErrStoreRequired       = errors.New("store is required")
	ErrModelClientRequired = errors.New("model client is required")

	ErrThreadIDRequired = errors.New("thread id is required")

	// ErrTurnCancelled is returned when the caller's context ends mid-turn.
	// The stored thread stays resumable.
	ErrTurnCancelled = errors.New("turn cancelled")

	// ErrTurnLimitExceeded matches every *TurnLimitError.
	ErrTurnLimitExceeded = errors.New("maximum tool rounds exceeded")
)

// ModelError reports a failed or timed out model call. The turn stops and
// nothing further is appended.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("model %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// TurnLimitError is returned when the model keeps requesting tools after
// MaxRounds rounds. Messages committed before the limit remain in the thread.
type TurnLimitError struct {
	ThreadID  string
	MaxRounds int
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("thread %s: %v (%d)", e.ThreadID, ErrTurnLimitExceeded, e.MaxRounds)
}

func (e *TurnLimitError) Is(target error) bool {
	return target == ErrTurnLimitExceeded
}
