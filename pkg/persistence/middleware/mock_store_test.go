package middleware_test

import (
	"context"
	"errors"

	"github.com/aretw0/stash/pkg/domain"
)

// MockBackend is a simple map-based backend for testing middleware.
type MockBackend struct {
	data    map[string]domain.Snapshot
	failing bool
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		data: make(map[string]domain.Snapshot),
	}
}

var errBoom = errors.New("boom")

func (s *MockBackend) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	if s.failing {
		return errBoom
	}
	s.data[sessionID] = snapshot
	return nil
}

func (s *MockBackend) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	snap, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return snap, nil
}

func (s *MockBackend) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockBackend) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}
