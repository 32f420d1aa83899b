// Package history keeps a SQLite log of program runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/nasal/internal/pipeline"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	program    TEXT NOT NULL,
	started_at TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	state      TEXT NOT NULL,
	errors     INTEGER NOT NULL,
	leaked     INTEGER NOT NULL
)`

// Record is one stored run.
type Record struct {
	RunID     string
	Program   string
	StartedAt time.Time
	Elapsed   time.Duration
	State     string
	Errors    int
	Leaked    int
}

// FromSummary converts a run summary into a Record.
func FromSummary(s *pipeline.Summary) Record {
	return Record{
		RunID:     s.RunID,
		Program:   s.Program,
		StartedAt: s.StartedAt,
		Elapsed:   s.Elapsed,
		State:     s.State,
		Errors:    s.Errors,
		Leaked:    s.Leaked,
	}
}

// Store is a run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" gives a private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores r.
func (s *Store) Record(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, program, started_at, elapsed_ms, state, errors, leaked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Program, r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Elapsed.Milliseconds(), r.State, r.Errors, r.Leaked)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, program, started_at, elapsed_ms, state, errors, leaked
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			started string
			elapsed int64
		)
		if err := rows.Scan(&r.RunID, &r.Program, &started, &elapsed, &r.State, &r.Errors, &r.Leaked); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad start time %q: %w", r.RunID, started, err)
		}
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
