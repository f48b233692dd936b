// Package engine implements the patrol session lifecycle: the single
// active-session state machine, geofence-based verification, per-checkpoint
// deadline monitoring, and automatic termination once every checkpoint is
// resolved.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ronda/internal/apperr"
	"github.com/starford/ronda/internal/geo"
	"github.com/starford/ronda/internal/models"
	"github.com/starford/ronda/internal/notify"
)

// sessionSnapshotKey is the fixed snapshot name under which the active
// session is persisted between transitions.
const sessionSnapshotKey = "active_session"

// staggerInterval offsets each checkpoint's individual start instant so
// that no two deadlines ever coincide.
const staggerInterval = time.Second

// LogAppender records immutable audit entries.
type LogAppender interface {
	AppendLog(entry models.LogEntry) error
}

// SnapshotStore persists whole-object session snapshots.
type SnapshotStore interface {
	SaveSnapshot(key string, value []byte) error
	DeleteSnapshot(key string) error
}

// Dispatcher delivers notifications. Implementations must never block
// indefinitely; the engine calls Dispatch fire-and-forget.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind notify.Kind, message string) bool
}

// EventSink receives live patrol events (SSE, tests). May be nil.
type EventSink interface {
	Publish(kind string, data any)
}

// Engine owns the single active-session slot. All state transitions go
// through its exported methods; the monitor goroutine only reads session
// state and requests expiry transitions via tick.
type Engine struct {
	logs     LogAppender
	snaps    SnapshotStore
	notifier Dispatcher
	events   EventSink
	logger   *slog.Logger

	mu            sync.Mutex
	settings      models.PatrolSettings
	session       *session
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}

	// Test hooks; zero values mean production defaults.
	tickInterval time.Duration
	stagger      time.Duration
}

// New creates an engine. notifier and events may be nil; settings are
// clamped to safe values.
func New(logs LogAppender, snaps SnapshotStore, notifier Dispatcher, events EventSink, logger *slog.Logger, settings models.PatrolSettings) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logs:     logs,
		snaps:    snaps,
		notifier: notifier,
		events:   events,
		logger:   logger,
		settings: clampSettings(settings),
	}
}

// clampSettings replaces non-positive configuration with defaults so that
// deadline evaluation never has to special-case bad values.
func clampSettings(s models.PatrolSettings) models.PatrolSettings {
	def := models.DefaultPatrolSettings()
	if s.PatrolTimeMinutes <= 0 {
		s.PatrolTimeMinutes = def.PatrolTimeMinutes
	}
	if s.ProximityMeters <= 0 {
		s.ProximityMeters = def.ProximityMeters
	}
	if s.TestMultiplier <= 0 {
		s.TestMultiplier = def.TestMultiplier
	}
	return s
}

// Settings returns the current runtime settings.
func (e *Engine) Settings() models.PatrolSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings replaces the runtime settings. In-flight sessions keep
// the deadlines computed at their start; new sessions pick up the change.
func (e *Engine) UpdateSettings(s models.PatrolSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = clampSettings(s)
}

// Start begins a new patrol over an immutable snapshot of checkpoints.
// It fails with apperr.ErrSessionActive while a session is in flight and
// apperr.ErrInvalidRequest for an empty checkpoint list. Each checkpoint
// gets a staggered start instant (+0s, +1s, ...) and a deadline derived
// from its own allotted minutes or the session default.
func (e *Engine) Start(ctx context.Context, checkpoints []models.Checkpoint) (SessionView, error) {
	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return SessionView{}, apperr.ErrSessionActive
	}
	if len(checkpoints) == 0 {
		e.mu.Unlock()
		return SessionView{}, fmt.Errorf("%w: no checkpoints configured", apperr.ErrInvalidRequest)
	}

	stagger := e.stagger
	if stagger == 0 {
		stagger = staggerInterval
	}

	now := time.Now()
	s := &session{
		id:        uuid.NewString(),
		startedAt: now,
		status:    models.SessionActive,
		byID:      make(map[string]*runState, len(checkpoints)),
	}
	for i, cp := range checkpoints {
		if _, dup := s.byID[cp.ID]; dup {
			e.mu.Unlock()
			return SessionView{}, fmt.Errorf("%w: duplicate checkpoint id %q", apperr.ErrInvalidRequest, cp.ID)
		}
		if cp.TimeMinutes <= 0 {
			cp.TimeMinutes = e.settings.PatrolTimeMinutes
		}
		if cp.RadiusMeters <= 0 {
			cp.RadiusMeters = e.settings.ProximityMeters
		}
		start := now.Add(time.Duration(i) * stagger)
		rs := &runState{
			checkpoint: cp,
			state:      models.StatePending,
			startedAt:  start,
			expiresAt:  Expiry(start, cp.TimeMinutes, e.settings.TestMultiplier),
		}
		s.points = append(s.points, rs)
		s.byID[cp.ID] = rs
	}
	e.session = s

	interval := e.tickInterval
	if interval == 0 {
		interval = monitorInterval(e.settings)
	}
	mctx, cancel := context.WithCancel(context.Background())
	e.monitorCancel = cancel
	done := make(chan struct{})
	e.monitorDone = done

	view := s.view()
	e.mu.Unlock()

	e.saveSessionSnapshot(view)
	go e.monitorLoop(mctx, interval, done)

	e.logger.Info("patrol started",
		slog.String("session_id", view.ID),
		slog.Int("checkpoints", len(view.Checkpoints)))
	e.dispatchAsync(notify.KindPatrolStarted,
		fmt.Sprintf("🚶 Patrol started: %d checkpoints to verify.", len(view.Checkpoints)))
	e.publish("patrol.started", view)

	return view, nil
}

// Verify marks a checkpoint as verified without a location check (manual
// verification). It returns apperr.ErrNoActiveSession, apperr.ErrNotFound
// or apperr.ErrAlreadyResolved without changing any state; a successful
// call records exactly one "completed" log entry and ends the session if
// it was the last pending checkpoint.
func (e *Engine) Verify(ctx context.Context, checkpointID string) error {
	return e.verify(ctx, checkpointID, nil)
}

// VerifyAt verifies a checkpoint against a location sample: the position
// must fall within the checkpoint's radius (boundary inclusive) or
// apperr.ErrOutOfRange is returned with no state change.
func (e *Engine) VerifyAt(ctx context.Context, checkpointID string, pos models.Position) error {
	return e.verify(ctx, checkpointID, &pos)
}

func (e *Engine) verify(ctx context.Context, checkpointID string, pos *models.Position) error {
	e.mu.Lock()
	s := e.session
	if s == nil || s.status != models.SessionActive {
		e.mu.Unlock()
		return apperr.ErrNoActiveSession
	}
	rs, ok := s.byID[checkpointID]
	if !ok {
		e.mu.Unlock()
		return apperr.ErrNotFound
	}
	if rs.state != models.StatePending {
		e.mu.Unlock()
		return apperr.ErrAlreadyResolved
	}
	if pos != nil {
		cp := rs.checkpoint
		if !geo.WithinRadius(pos.Latitude, pos.Longitude, cp.Latitude, cp.Longitude, cp.RadiusMeters) {
			e.mu.Unlock()
			return apperr.ErrOutOfRange
		}
	}

	now := time.Now()
	rs.state = models.StateVerified
	rs.verifiedAt = now
	entry := newLogEntry(s.id, rs.checkpoint, now, models.OutcomeCompleted, "")
	allResolved := s.pendingCount() == 0
	view := s.view()
	e.mu.Unlock()

	e.appendLog(entry)
	e.saveSessionSnapshot(view)
	e.logger.Info("checkpoint verified",
		slog.String("session_id", entry.SessionID),
		slog.String("checkpoint", entry.CheckpointName))
	e.publish("checkpoint.verified", map[string]string{
		"session_id":    entry.SessionID,
		"checkpoint_id": entry.CheckpointID,
		"name":          entry.CheckpointName,
	})

	if allResolved {
		e.End(ctx, false)
	}
	return nil
}

// UpdatePosition feeds one location sample into the engine. Every pending
// checkpoint whose geofence contains the sample is verified immediately.
// Returns the ids of checkpoints verified by this sample.
func (e *Engine) UpdatePosition(ctx context.Context, pos models.Position) []string {
	e.mu.Lock()
	s := e.session
	if s == nil || s.status != models.SessionActive {
		e.mu.Unlock()
		return nil
	}
	var candidates []string
	for _, rs := range s.points {
		if rs.state != models.StatePending {
			continue
		}
		cp := rs.checkpoint
		if geo.WithinRadius(pos.Latitude, pos.Longitude, cp.Latitude, cp.Longitude, cp.RadiusMeters) {
			candidates = append(candidates, cp.ID)
		}
	}
	e.mu.Unlock()

	var verified []string
	for _, id := range candidates {
		if err := e.verify(ctx, id, nil); err == nil {
			verified = append(verified, id)
		}
	}

	e.publish("position.updated", map[string]any{
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"verified":  len(verified),
	})
	return verified
}

// End terminates the active session. Every still-pending checkpoint gets
// a "missed" log entry (checkpoints already expired by the monitor were
// logged "delayed" and are not logged again), the monitor is stopped, a
// summary report is dispatched and the session slot is cleared. End is
// idempotent: with no active session it is a no-op.
func (e *Engine) End(ctx context.Context, manual bool) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return
	}
	if e.monitorCancel != nil {
		e.monitorCancel()
		e.monitorCancel = nil
	}

	now := time.Now()
	var missed []models.LogEntry
	for _, rs := range s.points {
		if rs.state == models.StatePending {
			missed = append(missed, newLogEntry(s.id, rs.checkpoint, now, models.OutcomeMissed, "unresolved at session end"))
		}
	}
	s.endedAt = now
	if manual && len(missed) > 0 {
		s.status = models.SessionCancelled
	} else {
		s.status = models.SessionCompleted
	}
	view := s.view()
	e.session = nil
	e.mu.Unlock()

	for _, entry := range missed {
		e.appendLog(entry)
	}
	e.deleteSessionSnapshot()

	report := FormatReport(view)
	e.logger.Info("patrol ended",
		slog.String("session_id", view.ID),
		slog.String("status", view.Status),
		slog.Bool("manual", manual),
		slog.Int("verified", view.VerifiedCount),
		slog.Int("missed", len(view.Checkpoints)-view.VerifiedCount))
	e.dispatchAsync(notify.KindPatrolCompleted, report)
	e.publish("patrol.completed", view)
}

// Status returns a snapshot of the active session, or false when none is
// in flight.
func (e *Engine) Status() (SessionView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return SessionView{}, false
	}
	return e.session.view(), true
}

// Report renders a progress report for the active session.
func (e *Engine) Report() (string, error) {
	v, ok := e.Status()
	if !ok {
		return "", apperr.ErrNoActiveSession
	}
	return FormatReport(v), nil
}

func newLogEntry(sessionID string, cp models.Checkpoint, at time.Time, outcome, notes string) models.LogEntry {
	return models.LogEntry{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		CheckpointID:   cp.ID,
		CheckpointName: cp.Name,
		Timestamp:      at,
		Outcome:        outcome,
		Notes:          notes,
	}
}

// appendLog records an audit entry. Store failures degrade gracefully:
// they are logged and swallowed so a transition is never blocked.
func (e *Engine) appendLog(entry models.LogEntry) {
	if e.logs == nil {
		return
	}
	if err := e.logs.AppendLog(entry); err != nil {
		e.logger.Warn("engine: append log failed",
			slog.String("checkpoint", entry.CheckpointName),
			slog.String("outcome", entry.Outcome),
			slog.String("error", err.Error()))
	}
}

// dispatchAsync sends a notification fire-and-forget. Delivery failures
// are the dispatcher's to log; the engine never waits for completion.
func (e *Engine) dispatchAsync(kind notify.Kind, message string) {
	e.mu.Lock()
	enabled := e.settings.NotificationsEnabled
	e.mu.Unlock()
	if e.notifier == nil || !enabled {
		return
	}
	go func() {
		if !e.notifier.Dispatch(context.Background(), kind, message) {
			e.logger.Debug("engine: notification not delivered", slog.String("kind", string(kind)))
		}
	}()
}

func (e *Engine) publish(kind string, data any) {
	if e.events != nil {
		e.events.Publish(kind, data)
	}
}

func (e *Engine) saveSessionSnapshot(v SessionView) {
	if e.snaps == nil {
		return
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := e.snaps.SaveSnapshot(sessionSnapshotKey, blob); err != nil {
		e.logger.Warn("engine: save session snapshot failed", slog.String("error", err.Error()))
	}
}

func (e *Engine) deleteSessionSnapshot() {
	if e.snaps == nil {
		return
	}
	if err := e.snaps.DeleteSnapshot(sessionSnapshotKey); err != nil {
		e.logger.Warn("engine: delete session snapshot failed", slog.String("error", err.Error()))
	}
}
