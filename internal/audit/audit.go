// Package audit records auto-generation runs in a local SQLite database
// so that scheduler behavior can be inspected after the fact.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Generation run history
-- One row per auto-generation pass, whether or not anything was due.
CREATE TABLE IF NOT EXISTS generation_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    run_trigger TEXT NOT NULL,         -- 'startup', 'timer' or 'manual'
    generated INTEGER NOT NULL,        -- transactions created
    skipped INTEGER NOT NULL,          -- due dates already materialized
    completed INTEGER NOT NULL         -- schedules that finished
);

CREATE INDEX IF NOT EXISTS idx_generation_runs_run_at
    ON generation_runs(run_at);
`

// Log manages the generation run history database.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at dbPath.
func Open(dbPath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// Run represents one recorded generation pass.
type Run struct {
	ID        int64
	RunAt     time.Time
	Trigger   string
	Generated int
	Skipped   int
	Completed int
}

// RecordRun appends a generation pass to the history.
func (l *Log) RecordRun(trigger string, generated, skipped, completed int) error {
	_, err := l.db.Exec(
		`INSERT INTO generation_runs (run_trigger, generated, skipped, completed) VALUES (?, ?, ?, ?)`,
		trigger, generated, skipped, completed,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run, or nil if none is recorded.
func (l *Log) LastRun() (*Run, error) {
	row := l.db.QueryRow(
		`SELECT id, run_at, run_trigger, generated, skipped, completed
		 FROM generation_runs ORDER BY id DESC LIMIT 1`)

	var run Run
	err := row.Scan(&run.ID, &run.RunAt, &run.Trigger, &run.Generated, &run.Skipped, &run.Completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last run: %w", err)
	}
	return &run, nil
}

// Stats summarizes the recorded history.
type Stats struct {
	Runs           int
	TotalGenerated int
	TotalCompleted int
	FirstRunAt     time.Time
	LastRunAt      time.Time
}

// Stats aggregates the run history.
func (l *Log) Stats() (*Stats, error) {
	row := l.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(generated), 0), COALESCE(SUM(completed), 0),
		        COALESCE(MIN(run_at), ''), COALESCE(MAX(run_at), '')
		 FROM generation_runs`)

	var stats Stats
	var first, last string
	if err := row.Scan(&stats.Runs, &stats.TotalGenerated, &stats.TotalCompleted, &first, &last); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	if stats.Runs > 0 {
		// SQLite stores CURRENT_TIMESTAMP as UTC "2006-01-02 15:04:05".
		stats.FirstRunAt, _ = time.Parse("2006-01-02 15:04:05", first)
		stats.LastRunAt, _ = time.Parse("2006-01-02 15:04:05", last)
	}
	return &stats, nil
}
