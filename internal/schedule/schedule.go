// Package schedule starts patrol sessions automatically at configured
// wall-clock times.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/ronda/internal/apperr"
	"github.com/starford/ronda/internal/engine"
	"github.com/starford/ronda/internal/models"
)

// checkInterval is short enough to never skip a whole minute.
const checkInterval = 30 * time.Second

// Catalog provides the checkpoints a scheduled patrol runs over.
type Catalog interface {
	ListCheckpoints() ([]models.Checkpoint, error)
}

// Time is one scheduled patrol start, local wall clock.
type Time struct {
	Hour   int
	Minute int
}

// Runner fires engine.Start when a scheduled minute arrives. A minute
// fires at most once; an active session or an empty catalog makes the
// runner skip that occurrence.
type Runner struct {
	eng     *engine.Engine
	catalog Catalog
	logger  *slog.Logger
	times   []Time

	lastFired string
}

// New creates a schedule runner. times may be empty, in which case Run
// only waits for ctx cancellation.
func New(eng *engine.Engine, catalog Catalog, logger *slog.Logger, times []Time) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{eng: eng, catalog: catalog, logger: logger, times: times}
}

// Run blocks until ctx is cancelled, checking the schedule twice a minute.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.check(ctx, now)
		}
	}
}

// check fires at most one scheduled start for the minute containing now.
func (r *Runner) check(ctx context.Context, now time.Time) {
	minute := now.Format("2006-01-02 15:04")
	if minute == r.lastFired {
		return
	}
	for _, st := range r.times {
		if st.Hour != now.Hour() || st.Minute != now.Minute() {
			continue
		}
		r.lastFired = minute
		r.start(ctx, st)
		return
	}
}

func (r *Runner) start(ctx context.Context, st Time) {
	cps, err := r.catalog.ListCheckpoints()
	if err != nil {
		r.logger.Error("schedule: list checkpoints failed", slog.String("error", err.Error()))
		return
	}
	view, err := r.eng.Start(ctx, cps)
	switch {
	case err == nil:
		r.logger.Info("schedule: patrol started",
			slog.String("session_id", view.ID),
			slog.Int("hour", st.Hour),
			slog.Int("minute", st.Minute))
	case errors.Is(err, apperr.ErrSessionActive):
		r.logger.Info("schedule: skipped, session already active")
	case errors.Is(err, apperr.ErrInvalidRequest):
		r.logger.Warn("schedule: skipped, no checkpoints configured")
	default:
		r.logger.Error("schedule: start failed", slog.String("error", err.Error()))
	}
}
