// Package scores persists finished game runs to SQLite so the dashboard
// can show a leaderboard across restarts.
package scores

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// defaultLimit caps list queries when the caller passes no limit
const defaultLimit = 20

// Run is one recorded game, from first wave to game over.
type Run struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	WavesCleared    int       `json:"waves_cleared"`
	Kills           int       `json:"kills"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Store wraps the scores database.
type Store struct {
	*sql.DB
}

// Open opens the scores database at path, creating the schema if needed.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scores db: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL,
			waves_cleared INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			duration_seconds DOUBLE NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create scores schema: %w", err)
	}

	return &Store{db}, nil
}

// Record inserts a finished run. Timestamps are stored as unix seconds.
func (s *Store) Record(run Run) error {
	_, err := s.Exec(
		"INSERT INTO runs (id, started_at, ended_at, waves_cleared, kills, duration_seconds) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.EndedAt.Unix(), run.WavesCleared, run.Kills, run.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the most recently finished runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	return s.list("ORDER BY ended_at DESC", limit)
}

// Top returns the best runs, ranked by waves cleared then kills.
// Earlier runs win ties.
func (s *Store) Top(limit int) ([]Run, error) {
	return s.list("ORDER BY waves_cleared DESC, kills DESC, ended_at ASC", limit)
}

func (s *Store) list(order string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.Query(
		"SELECT id, started_at, ended_at, waves_cleared, kills, duration_seconds FROM runs "+order+" LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, ended int64
		if err := rows.Scan(&r.ID, &started, &ended, &r.WavesCleared, &r.Kills, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.EndedAt = time.Unix(ended, 0).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
