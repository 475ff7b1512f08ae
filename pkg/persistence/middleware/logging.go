package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.Backend
	logger *slog.Logger
}

// NewLoggingMiddleware logs every backend call at debug level and failures at error level.
// A missing session is an expected outcome and is not logged as a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.Backend) ports.Backend {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	start := time.Now()
	err := m.next.Save(ctx, sessionID, snapshot)
	m.log(ctx, "save", sessionID, start, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	start := time.Now()
	snap, err := m.next.Load(ctx, sessionID)
	m.log(ctx, "load", sessionID, start, err)
	return snap, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.log(ctx, "delete", sessionID, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log(ctx, "list", "", start, err)
	return ids, err
}

func (m *loggingMiddleware) log(ctx context.Context, op, sessionID string, start time.Time, err error) {
	attrs := []any{"op", op, "duration", time.Since(start)}
	if sessionID != "" {
		attrs = append(attrs, "session_id", sessionID)
	}
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.logger.ErrorContext(ctx, "Backend call failed", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "Backend call", attrs...)
}
