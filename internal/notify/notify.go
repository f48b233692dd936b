// Package notify dispatches patrol notifications over Telegram and email.
// Dispatch is best-effort: transport failures are logged and swallowed so
// they can never block a session state transition.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Kind identifies a notification event.
type Kind string

// Notification kinds dispatched by the session engine.
const (
	KindPatrolStarted   Kind = "patrol_started"
	KindMissedPoint     Kind = "missed_point"
	KindPatrolCompleted Kind = "patrol_completed"
)

// Subject returns the email subject line for the kind.
func (k Kind) Subject() string {
	switch k {
	case KindPatrolStarted:
		return "Patrol started"
	case KindMissedPoint:
		return "Missed patrol checkpoint"
	case KindPatrolCompleted:
		return "Patrol completed"
	}
	return "Patrol notification"
}

// Sender delivers one message over a single transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, subject, message string) error
}

// Dispatcher fans a notification out to all configured senders.
type Dispatcher struct {
	senders []Sender
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over the given senders. A nil logger
// defaults to slog.Default().
func NewDispatcher(logger *slog.Logger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		senders: senders,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Dispatch sends message to every configured transport and reports whether
// at least one delivery succeeded. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, message string) bool {
	if len(d.senders) == 0 {
		d.logger.Debug("notify: no transports configured", slog.String("kind", string(kind)))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	delivered := false
	for _, s := range d.senders {
		if err := s.Send(ctx, kind.Subject(), message); err != nil {
			d.logger.Warn("notify: send failed",
				slog.String("transport", s.Name()),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			continue
		}
		delivered = true
	}
	return delivered
}
