package storage

import (
	"context"
	"database/sql"

	"github.com/elee1766/threadchat/src/aisdk"
)

// Execer is an interface for executing SQL statements
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Saver persists the ordered message sequence of every thread as a chain of
// checkpoints.
//
// Appends to one thread are serialized; appends to different threads may run
// concurrently. The order in which two concurrent writers to the same thread
// land is not defined; callers must not do that.
type Saver interface {
	// Append adds msgs to the end of the thread, creating it if needed, and
	// commits them as one checkpoint.
	Append(ctx context.Context, threadID string, msgs ...*aisdk.Message) (*Checkpoint, error)

	// Load returns the full message sequence, empty for an unknown thread.
	Load(ctx context.Context, threadID string) ([]*aisdk.Message, error)

	// ListThreads returns every thread id that has at least one checkpoint.
	ListThreads(ctx context.Context) ([]string, error)

	// Checkpoints returns the thread's checkpoints oldest first.
	Checkpoints(ctx context.Context, threadID string) ([]Checkpoint, error)

	// Latest returns the newest checkpoint, or nil if the thread is unknown.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	Close() error
}
