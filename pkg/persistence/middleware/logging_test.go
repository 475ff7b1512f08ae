package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mock := NewMockBackend()
	backend := middleware.Chain(mock, middleware.NewLoggingMiddleware(logger))
	ctx := context.Background()

	assert.NoError(t, backend.Save(ctx, "sid", domain.NewSnapshot()))
	assert.Contains(t, buf.String(), "op=save")
	assert.Contains(t, buf.String(), "session_id=sid")

	buf.Reset()
	_, err := backend.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Contains(t, buf.String(), "level=DEBUG", "a missing session is not a failure")

	buf.Reset()
	mock.failing = true
	assert.Error(t, backend.Save(ctx, "sid", domain.NewSnapshot()))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "err=boom")
}

func TestChain_Order(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	redact, err := middleware.NewRedactMiddleware(nil)
	assert.NoError(t, err)

	// Logging wraps the read-only view, so refused writes are logged as failures.
	backend := middleware.Chain(NewMockBackend(), middleware.NewLoggingMiddleware(logger), redact)
	assert.ErrorIs(t, backend.Save(context.Background(), "sid", domain.NewSnapshot()), middleware.ErrReadOnly)
	assert.Contains(t, buf.String(), "level=ERROR")
}
