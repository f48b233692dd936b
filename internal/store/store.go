// Package store provides SQLite-backed persistence for the checkpoint
// catalog, the append-only patrol log, and whole-object JSON snapshots.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	latitude      REAL NOT NULL,
	longitude     REAL NOT NULL,
	radius_meters REAL NOT NULL,
	time_minutes  INTEGER NOT NULL DEFAULT 0,
	position      INTEGER NOT NULL DEFAULT 0,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS patrol_logs (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL,
	checkpoint_id   TEXT NOT NULL,
	checkpoint_name TEXT NOT NULL,
	timestamp       DATETIME NOT NULL,
	outcome         TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_logs_session ON patrol_logs(session_id);
CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON patrol_logs(timestamp);

CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Snapshot keys used by the engine. Snapshots are whole-object JSON blobs;
// each write replaces the previous value ("last write wins").
const (
	SnapshotSettings      = "settings"
	SnapshotActiveSession = "active_session"
)

// DB wraps a sql.DB with patrol-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
