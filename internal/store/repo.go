package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ronda/internal/apperr"
	"github.com/starford/ronda/internal/models"
)

// ListCheckpoints returns every configured checkpoint in catalog order.
func (db *DB) ListCheckpoints() ([]models.Checkpoint, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, description, latitude, longitude, radius_meters, time_minutes
		FROM checkpoints
		ORDER BY position, updated_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		if err := rows.Scan(&cp.ID, &cp.Name, &cp.Description,
			&cp.Latitude, &cp.Longitude, &cp.RadiusMeters, &cp.TimeMinutes); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// GetCheckpoint returns one checkpoint by id.
func (db *DB) GetCheckpoint(id string) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	err := db.conn.QueryRow(`
		SELECT id, name, description, latitude, longitude, radius_meters, time_minutes
		FROM checkpoints WHERE id = ?`, id).
		Scan(&cp.ID, &cp.Name, &cp.Description,
			&cp.Latitude, &cp.Longitude, &cp.RadiusMeters, &cp.TimeMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get checkpoint: %w", err)
	}
	return &cp, nil
}

// CreateCheckpoint inserts a new checkpoint at the end of the catalog.
func (db *DB) CreateCheckpoint(cp models.Checkpoint) error {
	_, err := db.conn.Exec(`
		INSERT INTO checkpoints (id, name, description, latitude, longitude, radius_meters, time_minutes, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM checkpoints), ?)`,
		cp.ID, cp.Name, cp.Description, cp.Latitude, cp.Longitude,
		cp.RadiusMeters, cp.TimeMinutes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: create checkpoint: %w", err)
	}
	return nil
}

// UpdateCheckpoint replaces an existing checkpoint's attributes.
func (db *DB) UpdateCheckpoint(cp models.Checkpoint) error {
	res, err := db.conn.Exec(`
		UPDATE checkpoints
		SET name = ?, description = ?, latitude = ?, longitude = ?,
		    radius_meters = ?, time_minutes = ?, updated_at = ?
		WHERE id = ?`,
		cp.Name, cp.Description, cp.Latitude, cp.Longitude,
		cp.RadiusMeters, cp.TimeMinutes, time.Now().UTC(), cp.ID)
	if err != nil {
		return fmt.Errorf("store: update checkpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteCheckpoint removes a checkpoint from the catalog. Active sessions
// are unaffected: they operate on an immutable snapshot taken at start.
func (db *DB) DeleteCheckpoint(id string) error {
	res, err := db.conn.Exec(`DELETE FROM checkpoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete checkpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AppendLog inserts an immutable audit record. Entries are never updated
// or deleted.
func (db *DB) AppendLog(entry models.LogEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO patrol_logs (id, session_id, checkpoint_id, checkpoint_name, timestamp, outcome, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.CheckpointID, entry.CheckpointName,
		entry.Timestamp.UTC(), entry.Outcome, entry.Notes)
	if err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	return nil
}

// ListLogs returns log entries newest first, optionally filtered by
// session id. limit <= 0 means a default page of 100.
func (db *DB) ListLogs(sessionID string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, session_id, checkpoint_id, checkpoint_name, timestamp, outcome, notes
		FROM patrol_logs`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list logs: %w", err)
	}
	defer rows.Close()

	var out []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.CheckpointID,
			&e.CheckpointName, &e.Timestamp, &e.Outcome, &e.Notes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveSnapshot stores a complete JSON blob under key, replacing any
// previous value.
func (db *DB) SaveSnapshot(key string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO snapshots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: save snapshot %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot returns the stored blob for key, or apperr.ErrNotFound.
func (db *DB) LoadSnapshot(key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot %s: %w", key, err)
	}
	return []byte(value), nil
}

// DeleteSnapshot removes the blob for key. Missing keys are not an error.
func (db *DB) DeleteSnapshot(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete snapshot %s: %w", key, err)
	}
	return nil
}
