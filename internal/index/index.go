package index

import (
	"database/sql"
	"fmt"
	"time"

	"fbd-go/internal/daemon"
	"fbd-go/internal/index/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Catalog is the optional sqlite history of backup events. It records one
// session per daemon invocation and one event per completed copy, and
// serves the history command. The in-memory change-detection state is
// deliberately not kept here; the catalog is an audit trail, not a cache.
type Catalog struct {
	db        *sql.DB
	sessionID string
}

// OpenConnection opens and configures a sqlite connection. Exported for
// tests that need a raw configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// Single connection: the daemon is single-threaded and this keeps
	// :memory: databases from being split across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Open opens (creating if needed) the catalog at path and applies schema
// migrations. path can be a file path or ":memory:".
func Open(path string) (*Catalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Apply(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}

	return &Catalog{db: db}, nil
}

// BeginSession records the start of one daemon invocation and scopes all
// subsequent RecordEvent calls to it.
func (c *Catalog) BeginSession(id, watchRoot, backupRoot string, startedAt time.Time) error {
	_, err := c.db.Exec(
		`INSERT INTO sessions (id, watch_root, backup_root, started_at) VALUES (?, ?, ?, ?)`,
		id, watchRoot, backupRoot, startedAt,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	c.sessionID = id
	return nil
}

// RecordEvent stores one completed backup event under the current session.
func (c *Catalog) RecordEvent(srcRel, dstRel string, mtime, capturedAt time.Time) error {
	if c.sessionID == "" {
		return fmt.Errorf("no session started")
	}
	_, err := c.db.Exec(
		`INSERT INTO events (session_id, source_path, backup_path, modified_at, captured_at) VALUES (?, ?, ?, ?, ?)`,
		c.sessionID, srcRel, dstRel, mtime, capturedAt,
	)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Event is one catalog row.
type Event struct {
	ID         int64
	SessionID  string
	SourcePath string
	BackupPath string
	ModifiedAt time.Time
	CapturedAt time.Time
}

// RecentEvents returns up to limit events, newest first.
func (c *Catalog) RecentEvents(limit int) ([]*Event, error) {
	rows, err := c.db.Query(
		`SELECT id, session_id, source_path, backup_path, modified_at, captured_at
		 FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SourcePath, &e.BackupPath, &e.ModifiedAt, &e.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Compile-time check that Catalog implements daemon.Recorder.
var _ daemon.Recorder = (*Catalog)(nil)
