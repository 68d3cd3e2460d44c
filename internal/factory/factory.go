// Package factory wires the server and its collaborators from
// configuration.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/portside/battleship/internal/dependencies/clock"
	"github.com/portside/battleship/internal/dependencies/random"
	"github.com/portside/battleship/internal/server"
	"github.com/portside/battleship/internal/storage"
	"github.com/portside/battleship/internal/storage/memory"
	redisstorage "github.com/portside/battleship/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Store  storage.SnapshotStore
	Clock  clock.Clock
	Random random.Random
	Server *server.Server
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the snapshot backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// ServerConfig holds the listen and protocol settings
	// If zero value, defaults to server.DefaultConfig()
	ServerConfig server.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var store storage.SnapshotStore
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(clk)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	serverCfg := cfg.ServerConfig
	if serverCfg.Addr == "" {
		serverCfg = server.DefaultConfig()
	}

	return &App{
		Store:  store,
		Clock:  clk,
		Random: rnd,
		Server: server.New(serverCfg, store, clk, rnd, logger),
	}, nil
}
