// Package hostsession provides an in-process implementation of ports.SessionStore.
//
// A Session holds the snapshot of one user session for the duration of a request.
// Hosts (such as the HTTP adapter) load the snapshot from a ports.Backend, hand the
// Session to the namespace layer, and save the snapshot back once the request ends.
package hostsession

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/google/uuid"
)

// Session implements ports.AtomicSessionStore over an in-memory snapshot.
// Every method holds the mutex, and namespace stores run each operation through
// Atomically, so goroutines of one request can share a Session. Values returned by
// Read are live and must not be changed outside Atomically. The mutex does not
// coordinate concurrent requests on the same session ID.
type Session struct {
	mu      sync.Mutex
	id      string
	data    domain.Snapshot
	started bool
	dirty   bool
	retired []string

	committed func() bool
	issue     func() string
	onStart   func(ctx context.Context, id string) error
	onRotate  func(ctx context.Context, oldID, newID string) error
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithCommitted sets the function reporting whether the response has already been committed.
// Once it returns true, the session can no longer be started or rotated.
func WithCommitted(fn func() bool) Option {
	return func(s *Session) {
		s.committed = fn
	}
}

// WithIDIssuer replaces the session ID generator (random UUIDs by default).
func WithIDIssuer(fn func() string) Option {
	return func(s *Session) {
		s.issue = fn
	}
}

// WithOnStart registers a callback fired the first time the session is started.
// Hosts use it to emit the session cookie.
func WithOnStart(fn func(ctx context.Context, id string) error) Option {
	return func(s *Session) {
		s.onStart = fn
	}
}

// WithOnRotate registers a callback fired after the session ID was regenerated.
func WithOnRotate(fn func(ctx context.Context, oldID, newID string) error) Option {
	return func(s *Session) {
		s.onRotate = fn
	}
}

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session for id holding snap. An empty id means a brand new session;
// an ID is issued when it is started. A nil snap starts empty.
func New(id string, snap domain.Snapshot, opts ...Option) *Session {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	s := &Session{
		id:        id,
		data:      snap,
		committed: func() bool { return false },
		issue:     uuid.NewString,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureActive starts the session if needed.
func (s *Session) EnsureActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureActive(ctx)
}

// Active reports whether the session was started.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Read returns the live value stored under key.
func (s *Session) Read(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key)
}

// Write stores value under key.
func (s *Session) Write(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(key, value)
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(key)
}

// Exists reports whether key is present.
func (s *Session) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.read(key)
	return ok
}

// RegenerateID issues a new session ID. The previous ID is retired so the host can
// drop it from its backend.
func (s *Session) RegenerateID(ctx context.Context, preserveData bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regenerateID(ctx, preserveData)
}

// Atomically runs fn while holding the session mutex.
func (s *Session) Atomically(fn func(ports.SessionStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(heldSession{s})
}

func (s *Session) ensureActive(ctx context.Context) error {
	if s.committed() {
		return fmt.Errorf("%w: response already committed", domain.ErrSessionSetup)
	}
	if s.started {
		return nil
	}

	if s.id == "" {
		s.id = s.issue()
		s.dirty = true
	}
	if s.onStart != nil {
		if err := s.onStart(ctx, s.id); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSessionSetup, err)
		}
	}
	s.started = true
	s.logger.Debug("Session started", "session_id", s.id)
	return nil
}

func (s *Session) read(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) write(key string, value any) {
	s.data[key] = value
	s.dirty = true
}

func (s *Session) remove(key string) {
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
}

func (s *Session) regenerateID(ctx context.Context, preserveData bool) error {
	if !s.started {
		return domain.ErrSessionNotStarted
	}
	if s.committed() {
		return fmt.Errorf("%w: cannot regenerate id after the response was committed", domain.ErrSessionSetup)
	}

	oldID := s.id
	s.id = s.issue()
	s.retired = append(s.retired, oldID)
	if !preserveData {
		s.data = domain.NewSnapshot()
	}
	s.dirty = true

	if s.onRotate != nil {
		if err := s.onRotate(ctx, oldID, s.id); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSessionSetup, err)
		}
	}
	s.logger.Debug("Session id regenerated", "old_session_id", oldID, "session_id", s.id)
	return nil
}

// heldSession is the view handed to Atomically callbacks; the mutex is already held.
type heldSession struct {
	s *Session
}

func (h heldSession) EnsureActive(ctx context.Context) error { return h.s.ensureActive(ctx) }
func (h heldSession) Active() bool                           { return h.s.started }
func (h heldSession) Read(key string) (any, bool)            { return h.s.read(key) }
func (h heldSession) Write(key string, value any)            { h.s.write(key, value) }
func (h heldSession) Delete(key string)                      { h.s.remove(key) }

func (h heldSession) Exists(key string) bool {
	_, ok := h.s.read(key)
	return ok
}

func (h heldSession) RegenerateID(ctx context.Context, preserveData bool) error {
	return h.s.regenerateID(ctx, preserveData)
}

var _ ports.AtomicSessionStore = (*Session)(nil)

// ID returns the current session ID (empty until started for new sessions).
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Retired returns the IDs replaced by RegenerateID, oldest first.
func (s *Session) Retired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.retired...)
}

// Dirty reports whether the session changed since it was created.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot returns a deep copy of the session content, ready to be persisted.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}
