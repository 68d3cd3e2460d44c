package storage

import (
	"context"

	"github.com/portside/battleship/internal/model"
)

// SnapshotStore persists resumable session snapshots, keyed by participant
// identity (username for solo sessions, sorted username pair for duo).
// Implementations must make reads and writes to a single key atomic;
// distinct keys may be mutated independently. Expired snapshots disappear
// on their own.
type SnapshotStore interface {
	// Save stores a snapshot under its key, replacing any previous one.
	// The snapshot's ExpiresAt controls retention.
	Save(ctx context.Context, snapshot *model.SessionSnapshot) error

	// Load returns the snapshot for the key, or model.ErrSnapshotNotFound
	Load(ctx context.Context, key string) (*model.SessionSnapshot, error)

	// Delete removes the snapshot for the key; deleting a missing key is
	// not an error
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
