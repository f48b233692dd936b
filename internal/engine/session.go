package engine

import (
	"time"

	"github.com/starford/ronda/internal/models"
)

// runState tracks one checkpoint inside an active session. It is created
// at session start and destroyed with the session; only the engine and
// its monitor mutate it, always under the engine mutex.
type runState struct {
	checkpoint models.Checkpoint
	state      string
	startedAt  time.Time
	expiresAt  time.Time
	verifiedAt time.Time
}

// session is one in-flight patrol over an immutable checkpoint snapshot.
type session struct {
	id        string
	startedAt time.Time
	endedAt   time.Time
	status    string
	points    []*runState
	byID      map[string]*runState
}

func (s *session) pendingCount() int {
	n := 0
	for _, rs := range s.points {
		if rs.state == models.StatePending {
			n++
		}
	}
	return n
}

func (s *session) verifiedCount() int {
	n := 0
	for _, rs := range s.points {
		if rs.state == models.StateVerified {
			n++
		}
	}
	return n
}

// CheckpointView is the read-only state of one checkpoint in a session.
type CheckpointView struct {
	models.Checkpoint
	State      string     `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// SessionView is an immutable snapshot of a patrol session, safe to hand
// out without holding the engine lock.
type SessionView struct {
	ID            string           `json:"id"`
	StartedAt     time.Time        `json:"started_at"`
	EndedAt       *time.Time       `json:"ended_at,omitempty"`
	Status        string           `json:"status"`
	Checkpoints   []CheckpointView `json:"checkpoints"`
	VerifiedCount int              `json:"verified_count"`
	PendingCount  int              `json:"pending_count"`
}

// view builds a deep copy of the session state. Must be called with the
// engine mutex held.
func (s *session) view() SessionView {
	v := SessionView{
		ID:            s.id,
		StartedAt:     s.startedAt,
		Status:        s.status,
		Checkpoints:   make([]CheckpointView, len(s.points)),
		VerifiedCount: s.verifiedCount(),
		PendingCount:  s.pendingCount(),
	}
	if !s.endedAt.IsZero() {
		ended := s.endedAt
		v.EndedAt = &ended
	}
	for i, rs := range s.points {
		cv := CheckpointView{
			Checkpoint: rs.checkpoint,
			State:      rs.state,
			StartedAt:  rs.startedAt,
			ExpiresAt:  rs.expiresAt,
		}
		if !rs.verifiedAt.IsZero() {
			at := rs.verifiedAt
			cv.VerifiedAt = &at
		}
		v.Checkpoints[i] = cv
	}
	return v
}
