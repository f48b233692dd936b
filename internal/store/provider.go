package store

import "github.com/starford/ronda/internal/models"

// Catalog defines the checkpoint catalog operations. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Catalog interface {
	ListCheckpoints() ([]models.Checkpoint, error)
	GetCheckpoint(id string) (*models.Checkpoint, error)
	CreateCheckpoint(cp models.Checkpoint) error
	UpdateCheckpoint(cp models.Checkpoint) error
	DeleteCheckpoint(id string) error
}

// LogStore defines the append-only audit log operations.
type LogStore interface {
	AppendLog(entry models.LogEntry) error
	ListLogs(sessionID string, limit int) ([]models.LogEntry, error)
}

// SnapshotStore persists whole-object JSON snapshots keyed by fixed names.
type SnapshotStore interface {
	SaveSnapshot(key string, value []byte) error
	LoadSnapshot(key string) ([]byte, error)
	DeleteSnapshot(key string) error
}

// Verify *DB satisfies the store interfaces at compile time.
var (
	_ Catalog       = (*DB)(nil)
	_ LogStore      = (*DB)(nil)
	_ SnapshotStore = (*DB)(nil)
)
