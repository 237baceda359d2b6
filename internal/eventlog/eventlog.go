// Package eventlog records presence activity (connections, publishes,
// failures) in a SQLite database so CLI invocations can show history while
// the agent keeps writing.
package eventlog

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Kind classifies one recorded event.
type Kind string

const (
	KindConnected    Kind = "connected"
	KindDisconnected Kind = "disconnected"
	KindPublished    Kind = "published"
	KindCleared      Kind = "cleared"
	KindReconnected  Kind = "reconnected"
	KindError        Kind = "error"
)

// Event is one history record. ID is a ULID, so lexicographic order is
// creation order.
type Event struct {
	ID     string
	Kind   Kind
	Detail string
	At     time.Time
}

var entropy = ulid.Monotonic(rand.Reader, 0)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	kind     TEXT NOT NULL,
	detail   TEXT NOT NULL DEFAULT '',
	at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
`

// Log is the event history store.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the event database. WAL mode lets the
// history command read while the agent writes.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create events schema: %w", err)
	}
	return &Log{db: db}, nil
}

// OpenReadOnly opens an existing event database for queries only.
func OpenReadOnly(path string) (*Log, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one event.
func (l *Log) Record(kind Kind, detail string) error {
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), entropy).String()
	_, err := l.db.Exec(
		`INSERT INTO events (event_id, kind, detail, at) VALUES (?, ?, ?, ?)`,
		id, string(kind), detail, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (l *Log) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(
		`SELECT event_id, kind, detail, at FROM events ORDER BY event_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		var at int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.At = time.UnixMilli(at)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
