// Package models defines the domain types for Ronda.
package models

import "time"

// Checkpoint is a configured place a guard must visit and verify.
// TimeMinutes of 0 means "use the session default"; RadiusMeters of 0
// means "use the configured proximity threshold". Both are resolved when
// a session starts.
type Checkpoint struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	TimeMinutes  int     `json:"time_minutes,omitempty"`
}

// Checkpoint run states within an active session.
const (
	StatePending  = "pending"
	StateVerified = "verified"
	StateExpired  = "expired"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Log entry outcomes. A checkpoint whose own timer elapsed is "delayed";
// a checkpoint still pending when the session terminates is "missed".
const (
	OutcomeCompleted = "completed"
	OutcomeMissed    = "missed"
	OutcomeDelayed   = "delayed"
)

// LogEntry is an immutable audit record. Entries are append-only and are
// the system-of-record for reporting.
type LogEntry struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	CheckpointID   string    `json:"checkpoint_id"`
	CheckpointName string    `json:"checkpoint_name"`
	Timestamp      time.Time `json:"timestamp"`
	Outcome        string    `json:"outcome"`
	Notes          string    `json:"notes,omitempty"`
}

// Position is one location sample from the location provider.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// PatrolSettings is the runtime configuration consumed by the session
// engine. TestMultiplier dilates every deadline uniformly: 1.0 in normal
// operation, a fraction (e.g. 0.1) in accelerated test mode.
type PatrolSettings struct {
	PatrolTimeMinutes    int     `json:"patrol_time_minutes"`
	ProximityMeters      float64 `json:"proximity_meters"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	TestMultiplier       float64 `json:"test_multiplier"`
}

// DefaultPatrolSettings returns the settings used when nothing has been
// configured yet: 5 minutes per checkpoint, 50 m proximity, notifications
// on, no time dilation.
func DefaultPatrolSettings() PatrolSettings {
	return PatrolSettings{
		PatrolTimeMinutes:    5,
		ProximityMeters:      50,
		NotificationsEnabled: true,
		TestMultiplier:       1.0,
	}
}
