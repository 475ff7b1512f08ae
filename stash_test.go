package stash_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/config"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(stash.Version))
}

func TestOpenBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"memory", func(c *config.Config) { c.Backend = config.BackendMemory }},
		{"file", func(c *config.Config) {
			c.Backend = config.BackendFile
			c.File.Dir = filepath.Join(dir, "files", "nested")
		}},
		{"sqlite", func(c *config.Config) {
			c.Backend = config.BackendSQLite
			c.SQLite.Path = filepath.Join(dir, "db", "sessions.db")
		}},
		{"redis", func(c *config.Config) {
			c.Backend = config.BackendRedis
			c.Redis.Addr = mr.Addr()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.Default()
			tt.mutate(&cfg)

			backend, closeFn, err := stash.OpenBackend(ctx, cfg, logging.NewNop())
			require.NoError(t, err)
			defer closeFn()

			require.NoError(t, backend.Save(ctx, "sid", domain.Snapshot{"k": "v"}))
			snap, err := backend.Load(ctx, "sid")
			require.NoError(t, err)
			assert.Equal(t, "v", snap["k"])
		})
	}
}

func TestOpenBackend_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Backend = "etcd"
	_, _, err := stash.OpenBackend(ctx, cfg, logging.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	mr := miniredis.RunT(t)
	cfg = config.Default()
	cfg.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	mr.Close()
	_, _, err = stash.OpenBackend(ctx, cfg, logging.NewNop())
	assert.Error(t, err)
}
