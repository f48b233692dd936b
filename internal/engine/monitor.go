package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/ronda/internal/models"
	"github.com/starford/ronda/internal/notify"
)

// Monitor polling cadence: relaxed in normal operation, tight under time
// dilation so shortened deadlines are still caught promptly.
const (
	normalTick  = 10 * time.Second
	dilatedTick = time.Second
)

func monitorInterval(s models.PatrolSettings) time.Duration {
	if s.TestMultiplier < 1 {
		return dilatedTick
	}
	return normalTick
}

// monitorLoop drives periodic deadline checks until the session ends or
// the context is cancelled. Ticks never overlap: the next tick is only
// taken from the channel after the previous pass has issued all its side
// effects.
func (e *Engine) monitorLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if e.tick(context.Background(), now) {
				return
			}
		}
	}
}

// tick runs one synchronous pass over the pending checkpoints of the
// active session, expiring any whose deadline has passed. It returns true
// when the loop should stop: the session is gone, or every checkpoint is
// resolved and the session has been auto-ended.
//
// Expiry is guarded by the pending-state check under the engine mutex, so
// a checkpoint verified before its deadline can never be expired
// afterwards, and each checkpoint expires exactly once.
func (e *Engine) tick(ctx context.Context, now time.Time) bool {
	e.mu.Lock()
	s := e.session
	if s == nil || s.status != models.SessionActive {
		e.mu.Unlock()
		return true
	}

	var expired []models.LogEntry
	for _, rs := range s.points {
		if rs.state != models.StatePending {
			continue
		}
		if now.Before(rs.expiresAt) {
			continue
		}
		rs.state = models.StateExpired
		expired = append(expired, newLogEntry(s.id, rs.checkpoint, now, models.OutcomeDelayed,
			fmt.Sprintf("allotted %d min elapsed", rs.checkpoint.TimeMinutes)))
	}
	allResolved := s.pendingCount() == 0
	var view SessionView
	if len(expired) > 0 {
		view = s.view()
	}
	e.mu.Unlock()

	for _, entry := range expired {
		e.appendLog(entry)
		e.logger.Warn("checkpoint expired",
			slog.String("session_id", entry.SessionID),
			slog.String("checkpoint", entry.CheckpointName))
		e.dispatchAsync(notify.KindMissedPoint,
			fmt.Sprintf("⚠️ Checkpoint %q was not verified in time!", entry.CheckpointName))
		e.publish("checkpoint.expired", map[string]string{
			"session_id":    entry.SessionID,
			"checkpoint_id": entry.CheckpointID,
			"name":          entry.CheckpointName,
		})
	}
	if len(expired) > 0 {
		e.saveSessionSnapshot(view)
	}

	if allResolved {
		e.End(ctx, false)
		return true
	}
	return false
}
