package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/001_initial_schema.sql
var initialSchema string

//go:embed migrations/sqlite/002_checkpoint_source_index.sql
var checkpointSourceIndex string

//go:embed migrations/sqlite/003_message_is_error.sql
var messageIsError string

// Migration is one numbered schema change.
type Migration struct {
	Version int
	SQL     string
}

var sqliteMigrations = []Migration{
	{1, ExtractUpMigration(initialSchema)},
	{2, ExtractUpMigration(checkpointSourceIndex)},
	{3, ExtractUpMigration(messageIsError)},
}

// DB is the SQLite-backed Saver.
type DB struct {
	path  string
	db    *sql.DB
	locks ThreadLocks
}

var _ Saver = (*DB)(nil)

// Open opens (creating if needed) the database file at path and applies
// pending migrations. ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, Wrap("open", "", fmt.Errorf("failed to create database directory: %w", err))
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, Wrap("open", "", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	store := &DB{path: path, db: db}

	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, Wrap("open", "", fmt.Errorf("failed to run migrations: %w", err))
	}

	return store, nil
}

// Path returns the file the store was opened on.
func (d *DB) Path() string {
	return d.path
}

func (d *DB) DB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// AppliedMigrations returns the recorded migration versions.
func (d *DB) AppliedMigrations(ctx context.Context) ([]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, Wrap("migrations", "", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, Wrap("migrations", "", err)
		}
		versions = append(versions, version)
	}
	return versions, Wrap("migrations", "", rows.Err())
}

// runMigrations runs database migrations
func (d *DB) runMigrations() error {
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := d.db.Exec(createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	appliedVersions, err := d.AppliedMigrations(context.Background())
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	for _, migration := range sqliteMigrations {
		if slices.Contains(appliedVersions, migration.Version) {
			continue
		}

		tx, err := d.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ExtractUpMigration extracts the UP migration from goose format
func ExtractUpMigration(content string) string {
	lines := strings.Split(content, "\n")
	var upMigration []string
	inUp := false
	inStatement := false

	for _, line := range lines {
		if strings.Contains(line, "-- +goose Up") {
			inUp = true
			continue
		}
		if strings.Contains(line, "-- +goose Down") {
			break
		}
		if strings.Contains(line, "-- +goose StatementBegin") {
			inStatement = true
			continue
		}
		if strings.Contains(line, "-- +goose StatementEnd") {
			inStatement = false
			continue
		}
		if inUp && inStatement {
			upMigration = append(upMigration, line)
		}
	}

	return strings.Join(upMigration, "\n")
}
