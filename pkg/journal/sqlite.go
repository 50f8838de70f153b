package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
	id       TEXT PRIMARY KEY,
	at_ms    INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	behavior TEXT NOT NULL DEFAULT '',
	subject  TEXT NOT NULL DEFAULT '',
	detail   TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_events_at ON events (at_ms DESC);
`

// SQLite persists events in a single-table SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the journal database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal: database path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping database: %w", err)
	}
	if _, err := db.Exec(createEventsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append implements Store.
func (s *SQLite) Append(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	detail := "{}"
	if len(ev.Detail) > 0 {
		data, err := json.Marshal(ev.Detail)
		if err != nil {
			return fmt.Errorf("journal: marshal detail: %w", err)
		}
		detail = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, at_ms, kind, behavior, subject, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.At.UTC().UnixMilli(), string(ev.Kind), ev.Behavior, ev.Subject, detail)
	if err != nil {
		return fmt.Errorf("journal: append event: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *SQLite) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at_ms, kind, behavior, subject, detail FROM events ORDER BY at_ms DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("journal: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev     Event
			atMs   int64
			kind   string
			detail string
		)
		if err := rows.Scan(&ev.ID, &atMs, &kind, &ev.Behavior, &ev.Subject, &detail); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		ev.At = time.UnixMilli(atMs).UTC()
		ev.Kind = Kind(kind)
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &ev.Detail); err != nil {
				return nil, fmt.Errorf("journal: unmarshal detail: %w", err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate events: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
