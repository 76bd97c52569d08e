// Package store provides the SQLite-backed change store: the submit queue
// the merge engine reads, the change records and messages it updates, and
// the audit log of merge runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// CurrentSchemaVersion defines the current schema version for migration support.
const CurrentSchemaVersion = 1

// Store is a change store backed by a single SQLite database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dbPath and brings its
// schema up to date.
func Open(dbPath string) (*Store, error) {
	// Open database connection with WAL mode and busy timeout
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initializeSchemaWithMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetClock overrides the time source used for timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// initializeSchemaWithMigrations ensures the database schema is at the current
// version. There is only one version so far: an empty database gets the fresh
// schema and anything else must already match.
func initializeSchemaWithMigrations(db *sql.DB) error {
	currentVersion, err := getSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// If database is empty (version 0), create fresh schema
	if currentVersion == 0 {
		return createSchema(db)
	}
	if currentVersion != CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is not supported (want %d)", currentVersion, CurrentSchemaVersion)
	}
	return nil
}

func getSchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, err
	}
	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version)
	return err
}

func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS changes (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			branch            TEXT    NOT NULL,
			subject           TEXT    NOT NULL DEFAULT '',
			status            TEXT    NOT NULL,
			current_patch_set INTEGER NOT NULL DEFAULT 0,
			submit_order      INTEGER,
			last_updated_on   INTEGER NOT NULL,
			row_version       INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_submitted ON changes (branch, status, submit_order)`,
		`CREATE TABLE IF NOT EXISTS patch_sets (
			change_id    INTEGER NOT NULL REFERENCES changes(id),
			patch_set_id INTEGER NOT NULL,
			revision     TEXT    NOT NULL DEFAULT '',
			created_on   INTEGER NOT NULL,
			PRIMARY KEY (change_id, patch_set_id)
		)`,
		`CREATE TABLE IF NOT EXISTS change_messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			change_id  INTEGER NOT NULL REFERENCES changes(id),
			uuid       TEXT    NOT NULL,
			author_id  INTEGER,
			written_on INTEGER NOT NULL,
			message    TEXT    NOT NULL DEFAULT '',
			UNIQUE (change_id, uuid)
		)`,
		`CREATE TABLE IF NOT EXISTS message_ids (
			id INTEGER PRIMARY KEY AUTOINCREMENT
		)`,
		`CREATE TABLE IF NOT EXISTS merge_runs (
			run_id      TEXT    PRIMARY KEY,
			branch      TEXT    NOT NULL,
			old_tip     TEXT    NOT NULL DEFAULT '',
			new_tip     TEXT    NOT NULL DEFAULT '',
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			merged      INTEGER NOT NULL DEFAULT 0,
			failed      INTEGER NOT NULL DEFAULT 0,
			error       TEXT    NOT NULL DEFAULT ''
		)`,
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return setSchemaVersion(db, CurrentSchemaVersion)
}

// toMillis and fromMillis keep timestamps as integers so the driver never has
// to guess a time format
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// withTx runs fn in a transaction, rolling back on error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
