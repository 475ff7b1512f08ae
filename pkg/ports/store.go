package ports

import (
	"context"

	"github.com/aretw0/stash/pkg/domain"
)

// SessionStore is the host-provided key-value session for the current caller.
// Namespaces read and write through it directly and never keep a private copy.
type SessionStore interface {
	// EnsureActive starts or attaches the session. It is idempotent.
	// Returns domain.ErrSessionSetup if the session can no longer be established
	// (for example, the response has already been committed).
	EnsureActive(ctx context.Context) error

	// Active reports whether the session has been started.
	Active() bool

	// Read returns the value stored under key and whether it exists.
	Read(key string) (any, bool)

	// Write stores value under key.
	Write(key string, value any)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string)

	// Exists reports whether key is present.
	Exists(key string) bool

	// RegenerateID asks the host to rotate the session identifier.
	// When preserveData is false the session content is discarded as well.
	RegenerateID(ctx context.Context, preserveData bool) error
}

// AtomicSessionStore is a SessionStore that can run a sequence of reads and
// writes as one step. Namespaces use it when the host provides it, so nested
// registry maps are never changed while another goroutine reads them.
type AtomicSessionStore interface {
	SessionStore

	// Atomically runs fn with exclusive access to the session content.
	// The store passed to fn is only valid during the call and must not
	// call back into the outer store.
	Atomically(fn func(SessionStore))
}

// Backend persists whole session snapshots between requests.
type Backend interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
