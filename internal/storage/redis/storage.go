package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/portside/battleship/internal/dependencies/clock"
	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/storage"
)

// Storage is a Redis-backed snapshot store. Retention is delegated to
// Redis key TTLs, so no sweep goroutine is needed.
type Storage struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis storage instance
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, cfg: cfg, clock: clk}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	return &Storage{client: client, cfg: cfg, clock: clk}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.SnapshotStore = (*Storage)(nil)

func (s *Storage) Save(ctx context.Context, snapshot *model.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	ttl := s.cfg.DefaultTTL
	if !snapshot.ExpiresAt.IsZero() {
		ttl = snapshot.ExpiresAt.Sub(s.clock.Now())
		if ttl <= 0 {
			// Already expired; make sure nothing stale survives
			return s.Delete(ctx, snapshot.Key())
		}
	}

	return s.client.Set(ctx, snapshotKey(snapshot.Key()), data, ttl).Err()
}

func (s *Storage) Load(ctx context.Context, key string) (*model.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var snapshot model.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, snapshotKey(key)).Err()
}
