package stash

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/stash/internal/config"
	"github.com/aretw0/stash/pkg/adapters/file"
	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/adapters/redis"
	"github.com/aretw0/stash/pkg/adapters/sqlite"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
)

// Version is the released version of stash.
//
//go:embed VERSION
var Version string

// OpenBackend creates the session backend selected by cfg, wrapped with logging.
// The returned close function releases connections held by the backend.
func OpenBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.Backend, func() error, error) {
	var (
		backend ports.Backend
		closeFn = func() error { return nil }
	)

	switch cfg.Backend {
	case config.BackendMemory:
		backend = memory.NewStore()
	case config.BackendFile:
		if err := os.MkdirAll(cfg.File.Dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		backend = file.New(cfg.File.Dir)
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		backend, closeFn = store, store.Close
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		backend, closeFn = store, store.Close
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}

	logger.Debug("Backend opened", "kind", cfg.Backend)
	return middleware.Chain(backend, middleware.NewLoggingMiddleware(logger)), closeFn, nil
}
