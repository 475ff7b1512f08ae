package middleware

import (
	"context"
	"errors"
	"regexp"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// ErrReadOnly is returned by writes through a redacting backend.
var ErrReadOnly = errors.New("backend is read-only")

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.Backend
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a read-only view of a backend that masks every value whose
// key matches one of the patterns, at any depth. It is meant for inspection tooling:
// snapshots read through it must never be written back, so writes are refused.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.Backend) ports.Backend {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	return ErrReadOnly
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	snap, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	masked := snap.Clone()
	maskMap(masked, m.patterns)
	return masked, nil
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return ErrReadOnly
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchesAny(k, patterns) {
			m[k] = Mask
			continue
		}
		maskValue(v, patterns)
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch t := v.(type) {
	case map[string]any:
		maskMap(t, patterns)
	case []any:
		for _, item := range t {
			maskValue(item, patterns)
		}
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
