// Package sqlite implements a durable core.RunStore on SQLite.
//
// Runs are stored as JSON documents next to their indexed columns; events
// are stored in emission order using their wire encoding.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/session"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id VARCHAR(255) PRIMARY KEY,
    session_id VARCHAR(255) NOT NULL,
    agent_name VARCHAR(255) NOT NULL,
    status VARCHAR(50) NOT NULL,
    data TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_session_id ON runs(session_id);

CREATE TABLE IF NOT EXISTS run_events (
    run_id VARCHAR(255) NOT NULL,
    seq INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

// Options configures a Store.
type Options struct {
	// Timeout bounds every statement. Defaults to 10s.
	Timeout time.Duration
}

// Store is a SQLite-backed RunStore.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	// serializes read-modify-write cycles
	mu sync.Mutex
}

// Open opens (or creates) the database at dsn, e.g. "file:runs.db" or
// ":memory:".
func Open(dsn string, optFns ...func(o *Options)) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s, err := New(db, optFns...)
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an existing connection and initializes the schema.
func New(db *sql.DB, optFns ...func(o *Options)) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}

	opts := Options{Timeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Store{db: db, timeout: opts.Timeout}

	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Create implements core.RunStore.
func (s *Store) Create(run *core.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.ctx()
	defer cancel()

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.RunID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query run: %w", err)
	}

	if exists > 0 {
		return fmt.Errorf("%w: %s", session.ErrRunExists, run.RunID)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, session_id, agent_name, status, data, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, run.RunID, run.SessionID, run.AgentName, string(run.Status), string(data), run.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get implements core.RunStore.
func (s *Store) Get(runID string) (*core.Run, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	return getRun(ctx, s.db, runID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRun(ctx context.Context, q queryer, runID string) (*core.Run, error) {
	var data string

	err := q.QueryRowContext(ctx, `SELECT data FROM runs WHERE id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var run core.Run
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}

	if run.Output == nil {
		run.Output = []core.Message{}
	}

	return &run, nil
}

// Update implements core.RunStore.
func (s *Store) Update(runID string, fn func(r *core.Run)) error {
	return s.mutate(runID, func(tx *sql.Tx, run *core.Run) error {
		fn(run)
		return nil
	})
}

// AppendEvent implements core.RunStore.
func (s *Store) AppendEvent(runID string, ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	return s.mutate(runID, func(tx *sql.Tx, run *core.Run) error {
		ctx, cancel := s.ctx()
		defer cancel()

		var seq int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_events WHERE run_id = ?`, runID).Scan(&seq); err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO run_events (run_id, seq, data) VALUES (?, ?, ?)`,
			runID, seq, string(data)); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		if msg, ok := ev.Output(); ok {
			run.Output = append(run.Output, msg)
		}

		return nil
	})
}

// mutate loads the run, applies fn and writes the run back in one transaction.
func (s *Store) mutate(runID string, fn func(tx *sql.Tx, run *core.Run) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	run, err := getRun(ctx, tx, runID)
	if err != nil {
		return err
	}

	if err := fn(tx, run); err != nil {
		return err
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE runs SET status = ?, data = ? WHERE id = ?`,
		string(run.Status), string(data), runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return tx.Commit()
}

// Events implements core.RunStore.
func (s *Store) Events(runID string) ([]core.Event, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := getRun(ctx, s.db, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM run_events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []core.Event{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		var ev core.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}

		events = append(events, ev)
	}

	return events, rows.Err()
}

// ListSession implements core.RunStore.
func (s *Store) ListSession(sessionID string) ([]*core.Run, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session runs: %w", err)
	}

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}

		ids = append(ids, id)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*core.Run, 0, len(ids))

	for _, id := range ids {
		run, err := getRun(ctx, s.db, id)
		if err != nil {
			return nil, err
		}

		out = append(out, run)
	}

	return out, nil
}
