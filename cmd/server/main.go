package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/portside/battleship/internal/factory"
	"github.com/portside/battleship/internal/protocol"
	"github.com/portside/battleship/internal/server"
	redisstorage "github.com/portside/battleship/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:       logger,
		StorageType:  os.Getenv("STORAGE_TYPE"),
		ServerConfig: serverConfigFromEnv(logger),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Server.Start(); err != nil {
		logger.Error("failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server started", slog.String("addr", app.Server.Addr()))

	// Wait for a shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	if err := app.Server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := app.Store.Close(); err != nil {
		logger.Error("storage close error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// serverConfigFromEnv overlays environment settings onto the defaults
func serverConfigFromEnv(logger *slog.Logger) server.Config {
	cfg := server.DefaultConfig()
	if v := os.Getenv("BATTLESHIP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("BATTLESHIP_ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("BATTLESHIP_KEY"); v != "" {
		cfg.Keys = protocol.StaticKey(v)
	} else if v := os.Getenv("BATTLESHIP_PASSPHRASE"); v != "" {
		cfg.Keys = protocol.PassphraseKey(v)
	} else {
		logger.Warn("no BATTLESHIP_KEY or BATTLESHIP_PASSPHRASE set, using development passphrase")
	}
	return cfg
}
