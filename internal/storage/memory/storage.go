package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/portside/battleship/internal/dependencies/clock"
	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/storage"
)

// DefaultSweepInterval is how often the background sweep runs
const DefaultSweepInterval = 30 * time.Second

// Storage is an in-memory implementation of the snapshot store. Expired
// snapshots are invisible to Load immediately and reclaimed by a periodic
// background sweep.
type Storage struct {
	mu        sync.RWMutex
	snapshots map[string]*model.SessionSnapshot

	clock clock.Clock
	done  chan struct{}
	once  sync.Once
}

// New creates an in-memory store and starts its sweep goroutine
func New(clk clock.Clock) *Storage {
	s := &Storage{
		snapshots: make(map[string]*model.SessionSnapshot),
		clock:     clk,
		done:      make(chan struct{}),
	}
	go s.sweepLoop(DefaultSweepInterval)
	return s
}

// Ensure Storage implements the interface
var _ storage.SnapshotStore = (*Storage)(nil)

func (s *Storage) Save(ctx context.Context, snapshot *model.SessionSnapshot) error {
	// detach from the caller, who keeps mutating its boards; the redis
	// backend gets the same isolation from serialization
	copied, err := cloneSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Key()] = copied
	return nil
}

func cloneSnapshot(snapshot *model.SessionSnapshot) (*model.SessionSnapshot, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var copied model.SessionSnapshot
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Storage) Load(ctx context.Context, key string) (*model.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[key]
	if !ok || s.expired(snapshot) {
		return nil, model.ErrSnapshotNotFound
	}
	return cloneSnapshot(snapshot)
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

// Close stops the sweep goroutine
func (s *Storage) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Storage) expired(snapshot *model.SessionSnapshot) bool {
	return !snapshot.ExpiresAt.IsZero() && !s.clock.Now().Before(snapshot.ExpiresAt)
}

// Sweep removes every expired snapshot and reports how many were reclaimed
func (s *Storage) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, snapshot := range s.snapshots {
		if s.expired(snapshot) {
			delete(s.snapshots, key)
			removed++
		}
	}
	return removed
}

func (s *Storage) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}
