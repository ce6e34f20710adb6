// Package history persists a JobRecord row after every download job
// reaches a terminal state. It is write-only from the engine's
// perspective: nothing here is ever read back to resume a job, which
// stays out of scope.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome is a job's terminal classification.
type Outcome string

const (
	Done    Outcome = "done"
	Aborted Outcome = "aborted"
)

// Record is one completed job's summary.
type Record struct {
	ID             string
	URL            string
	OutputName     string
	BytesWritten   int64
	SegmentCount   int
	ExhaustedCount int
	StartedAt      time.Time
	FinishedAt     time.Time
	Outcome        Outcome
}

// Store is a thin wrapper over an embedded sqlite database, mirroring
// the teacher's Instance-wraps-driver-connection shape.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS job_records (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	output_name TEXT NOT NULL,
	bytes_written INTEGER NOT NULL,
	segment_count INTEGER NOT NULL,
	exhausted_count INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	outcome TEXT NOT NULL
);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts rec. Called once per job, after it reaches Done or
// Aborted; never updated afterward.
func (s *Store) Record(ctx context.Context, rec Record) error {
	const stmt = `
INSERT INTO job_records
	(id, url, output_name, bytes_written, segment_count, exhausted_count, started_at, finished_at, outcome)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		rec.ID, rec.URL, rec.OutputName, rec.BytesWritten, rec.SegmentCount, rec.ExhaustedCount,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.FinishedAt.UTC().Format(time.RFC3339Nano), string(rec.Outcome))
	if err != nil {
		return fmt.Errorf("history: insert job record %s: %w", rec.ID, err)
	}
	return nil
}
