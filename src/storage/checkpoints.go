package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/georgysavva/scany/v2/sqlscan"
)

const (
	checkpointColumns = `id, thread_id, parent_id, step, message_count, source, created_at`
	messageColumns    = `id, thread_id, checkpoint_id, position, role, content, name, tool_call_id, is_error, tool_calls, created_at`
)

// Append adds msgs to the thread as one checkpoint.
func (d *DB) Append(ctx context.Context, threadID string, msgs ...*aisdk.Message) (*Checkpoint, error) {
	if threadID == "" {
		return nil, Wrap("append", threadID, ErrThreadIDRequired)
	}

	unlock := d.locks.Lock(threadID)
	defer unlock()

	latest, err := GetLatestCheckpoint(ctx, d.db, threadID)
	if err != nil {
		return nil, Wrap("append", threadID, err)
	}
	if len(msgs) == 0 {
		return latest, nil
	}

	cp := NextCheckpoint(threadID, latest, len(msgs), SourceFor(msgs))

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Wrap("append", threadID, fmt.Errorf("failed to begin transaction: %w", err))
	}
	if err := insertCheckpoint(ctx, tx, cp, msgs); err != nil {
		tx.Rollback()
		return nil, Wrap("append", threadID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, Wrap("append", threadID, fmt.Errorf("failed to commit checkpoint: %w", err))
	}
	return cp, nil
}

// Load returns the thread's messages in insertion order.
func (d *DB) Load(ctx context.Context, threadID string) ([]*aisdk.Message, error) {
	rows, err := GetMessagesByThreadID(ctx, d.db, threadID)
	if err != nil {
		return nil, Wrap("load", threadID, err)
	}
	out := make([]*aisdk.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Message())
	}
	return out, nil
}

// ListThreads scans every checkpoint once and returns the distinct thread ids.
func (d *DB) ListThreads(ctx context.Context) ([]string, error) {
	var threads []string
	err := sqlscan.Select(ctx, d.db, &threads, `SELECT DISTINCT thread_id FROM checkpoints ORDER BY thread_id`)
	if err != nil {
		return nil, Wrap("list threads", "", err)
	}
	if threads == nil {
		threads = []string{}
	}
	return threads, nil
}

// Checkpoints returns the thread's checkpoints ordered by step.
func (d *DB) Checkpoints(ctx context.Context, threadID string) ([]Checkpoint, error) {
	var cps []Checkpoint
	query := `SELECT ` + checkpointColumns + ` FROM checkpoints WHERE thread_id = ? ORDER BY step`
	if err := sqlscan.Select(ctx, d.db, &cps, query, threadID); err != nil {
		return nil, Wrap("checkpoints", threadID, err)
	}
	return cps, nil
}

// Latest returns the newest checkpoint of the thread or nil.
func (d *DB) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	cp, err := GetLatestCheckpoint(ctx, d.db, threadID)
	return cp, Wrap("latest", threadID, err)
}

// GetLatestCheckpoint retrieves the highest-step checkpoint of a thread
func GetLatestCheckpoint(ctx context.Context, db sqlscan.Querier, threadID string) (*Checkpoint, error) {
	query := `SELECT ` + checkpointColumns + ` FROM checkpoints WHERE thread_id = ? ORDER BY step DESC LIMIT 1`
	var cp Checkpoint
	err := sqlscan.Get(ctx, db, &cp, query, threadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &cp, nil
}

// GetMessagesByThreadID retrieves all messages of a thread ordered by position
func GetMessagesByThreadID(ctx context.Context, db sqlscan.Querier, threadID string) ([]MessageRow, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE thread_id = ? ORDER BY position`
	var rows []MessageRow
	if err := sqlscan.Select(ctx, db, &rows, query, threadID); err != nil {
		return nil, err
	}
	return rows, nil
}

// insertCheckpoint writes cp and its messages; positions continue from the
// parent's message count.
func insertCheckpoint(ctx context.Context, db Execer, cp *Checkpoint, msgs []*aisdk.Message) error {
	query := `INSERT INTO checkpoints (` + checkpointColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, cp.ID, cp.ThreadID, cp.ParentID, cp.Step, cp.MessageCount, cp.Source, cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}

	base := cp.MessageCount - len(msgs)
	for i, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message %d is nil", i)
		}
		row := NewMessageRow(cp, base+i, msg)
		_, err := db.ExecContext(ctx,
			`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.ThreadID, row.CheckpointID, row.Position, row.Role, row.Content, row.Name, row.ToolCallID, row.IsError, row.ToolCalls, row.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}
	return nil
}
