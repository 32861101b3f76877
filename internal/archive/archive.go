// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed conversion runs in a SQLite database
// so past batches can be listed and inspected after the report files have
// moved on.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/hl7convert/pkg/types"
)

const (
	// DefaultDir is the archive location when none is configured.
	DefaultDir = ".hl7convert"

	dbFile = "runs.db"
)

// Store manages the run archive database.
type Store struct {
	db *sql.DB
}

// Run is one archived conversion run.
type Run struct {
	ID           int64
	InputPath    string
	OutputPath   string
	StartedAt    time.Time
	SuccessCount int
	FailureCount int
}

// RunMeta identifies a run being recorded.
type RunMeta struct {
	InputPath  string
	OutputPath string
	StartedAt  time.Time
}

// Open opens or creates the archive database under dir, creating the schema
// if it does not exist.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			started_at TEXT NOT NULL,
			success_count INTEGER NOT NULL,
			failure_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			message_index INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, message_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_status ON messages(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts a run and its per-message rows in one transaction and
// returns the new run ID.
func (s *Store) Record(ctx context.Context, meta RunMeta, rep types.BatchReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	started := meta.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input_path, output_path, started_at, success_count, failure_count)
		 VALUES (?, ?, ?, ?, ?)`,
		meta.InputPath, meta.OutputPath, started.UTC().Format(time.RFC3339Nano),
		rep.SuccessCount, rep.FailureCount,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, o := range rep.Outcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (run_id, message_index, status, error) VALUES (?, ?, ?, ?)`,
			runID, o.Index, string(o.Status), o.Error,
		); err != nil {
			return 0, fmt.Errorf("inserting message %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// defaults to 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, output_path, started_at, success_count, failure_count
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &started, &r.SuccessCount, &r.FailureCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Messages returns the per-message rows for one run in index order.
func (s *Store) Messages(ctx context.Context, runID int64) ([]types.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_index, status, error FROM messages
		 WHERE run_id = ? ORDER BY message_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying messages for run %d: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var status string
		if err := rows.Scan(&o.Index, &status, &o.Error); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		o.Status = types.ConversionStatus(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
