// Package postgres is the PostgreSQL-backed storage.Saver.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/storage"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/001_initial_schema.sql
var initialSchema string

//go:embed migrations/002_message_is_error.sql
var messageIsError string

var migrations = []storage.Migration{
	{Version: 1, SQL: storage.ExtractUpMigration(initialSchema)},
	{Version: 2, SQL: storage.ExtractUpMigration(messageIsError)},
}

const (
	checkpointColumns = `id, thread_id, parent_id, step, message_count, source, created_at`
	messageColumns    = `id, thread_id, checkpoint_id, position, role, content, name, tool_call_id, is_error, tool_calls, created_at`
)

// Store keeps threads in PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	locks storage.ThreadLocks
}

var _ storage.Saver = (*Store)(nil)

// Open connects to url and applies pending migrations.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, storage.Wrap("open", "", fmt.Errorf("failed to create pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storage.Wrap("open", "", fmt.Errorf("failed to reach database: %w", err))
	}

	s := &Store{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, storage.Wrap("open", "", fmt.Errorf("failed to run migrations: %w", err))
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Append commits msgs as one checkpoint. The thread row is locked FOR UPDATE
// so writers in other processes are serialized as well.
func (s *Store) Append(ctx context.Context, threadID string, msgs ...*aisdk.Message) (*storage.Checkpoint, error) {
	if threadID == "" {
		return nil, storage.Wrap("append", threadID, storage.ErrThreadIDRequired)
	}

	unlock := s.locks.Lock(threadID)
	defer unlock()

	if len(msgs) == 0 {
		return s.Latest(ctx, threadID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage.Wrap("append", threadID, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO threads (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, threadID); err != nil {
		return nil, storage.Wrap("append", threadID, fmt.Errorf("failed to create thread: %w", err))
	}
	if _, err := tx.Exec(ctx, `SELECT id FROM threads WHERE id = $1 FOR UPDATE`, threadID); err != nil {
		return nil, storage.Wrap("append", threadID, fmt.Errorf("failed to lock thread: %w", err))
	}

	latest, err := latestCheckpoint(ctx, tx, threadID)
	if err != nil {
		return nil, storage.Wrap("append", threadID, err)
	}
	cp := storage.NextCheckpoint(threadID, latest, len(msgs), storage.SourceFor(msgs))

	if err := insertCheckpoint(ctx, tx, cp, msgs); err != nil {
		return nil, storage.Wrap("append", threadID, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE threads SET updated_at = NOW() WHERE id = $1`, threadID); err != nil {
		return nil, storage.Wrap("append", threadID, fmt.Errorf("failed to touch thread: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storage.Wrap("append", threadID, fmt.Errorf("failed to commit checkpoint: %w", err))
	}
	return cp, nil
}

func (s *Store) Load(ctx context.Context, threadID string) ([]*aisdk.Message, error) {
	var rows []storage.MessageRow
	query := `SELECT ` + messageColumns + ` FROM messages WHERE thread_id = $1 ORDER BY position`
	if err := pgxscan.Select(ctx, s.pool, &rows, query, threadID); err != nil {
		return nil, storage.Wrap("load", threadID, err)
	}
	out := make([]*aisdk.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Message())
	}
	return out, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]string, error) {
	var threads []string
	if err := pgxscan.Select(ctx, s.pool, &threads, `SELECT DISTINCT thread_id FROM checkpoints ORDER BY thread_id`); err != nil {
		return nil, storage.Wrap("list threads", "", err)
	}
	if threads == nil {
		threads = []string{}
	}
	return threads, nil
}

func (s *Store) Checkpoints(ctx context.Context, threadID string) ([]storage.Checkpoint, error) {
	var cps []storage.Checkpoint
	query := `SELECT ` + checkpointColumns + ` FROM checkpoints WHERE thread_id = $1 ORDER BY step`
	if err := pgxscan.Select(ctx, s.pool, &cps, query, threadID); err != nil {
		return nil, storage.Wrap("checkpoints", threadID, err)
	}
	return cps, nil
}

func (s *Store) Latest(ctx context.Context, threadID string) (*storage.Checkpoint, error) {
	cp, err := latestCheckpoint(ctx, s.pool, threadID)
	return cp, storage.Wrap("latest", threadID, err)
}

func latestCheckpoint(ctx context.Context, db pgxscan.Querier, threadID string) (*storage.Checkpoint, error) {
	query := `SELECT ` + checkpointColumns + ` FROM checkpoints WHERE thread_id = $1 ORDER BY step DESC LIMIT 1`
	var cp storage.Checkpoint
	if err := pgxscan.Get(ctx, db, &cp, query, threadID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cp, nil
}

func insertCheckpoint(ctx context.Context, tx pgx.Tx, cp *storage.Checkpoint, msgs []*aisdk.Message) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO checkpoints (`+checkpointColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cp.ID, cp.ThreadID, cp.ParentID, cp.Step, cp.MessageCount, cp.Source, cp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}

	batch := &pgx.Batch{}
	base := cp.MessageCount - len(msgs)
	for i, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message %d is nil", i)
		}
		row := storage.NewMessageRow(cp, base+i, msg)
		toolCalls, err := row.ToolCalls.Value()
		if err != nil {
			return fmt.Errorf("failed to encode tool calls of message %d: %w", i, err)
		}
		batch.Queue(
			`INSERT INTO messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			row.ID, row.ThreadID, row.CheckpointID, row.Position, row.Role, row.Content, row.Name, row.ToolCallID, row.IsError, toolCalls, row.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert messages: %w", err)
	}
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []int
	if err := pgxscan.Select(ctx, s.pool, &applied, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			continue
		}
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
