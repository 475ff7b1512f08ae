package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/namespace"
	"github.com/aretw0/stash/pkg/ports"
)

// Facade wraps the default namespace of one session.
type Facade struct {
	store  ports.SessionStore
	ns     *namespace.Store
	hooks  domain.Hooks
	logger *slog.Logger
}

// Option configures the Facade.
type Option func(*Facade)

// WithLogger configures a logger for the Facade and the namespaces it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// WithHooks registers observability hooks on every namespace the Facade opens.
func WithHooks(hooks domain.Hooks) Option {
	return func(f *Facade) {
		f.hooks = hooks
	}
}

// New creates the Facade for the given session store.
// It fails with domain.ErrSessionSetup when the session cannot be started.
func New(ctx context.Context, store ports.SessionStore, opts ...Option) (*Facade, error) {
	f := &Facade{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	ns, err := f.Namespace(ctx, domain.DefaultNamespace)
	if err != nil {
		return nil, err
	}
	if _, err := ns.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock default namespace: %w", err)
	}
	f.ns = ns
	return f, nil
}

// Namespace opens another namespace over the same session store.
func (f *Facade) Namespace(ctx context.Context, name string) (*namespace.Store, error) {
	return namespace.New(ctx, f.store, name,
		namespace.WithLogger(f.logger),
		namespace.WithHooks(f.hooks),
	)
}

// Default returns the underlying default namespace.
func (f *Facade) Default() *namespace.Store {
	return f.ns
}

// Set stores value under key in the default namespace.
func (f *Facade) Set(key string, value any) (bool, error) {
	return f.unlocked(func() (bool, error) {
		return f.ns.Set(key, value)
	})
}

// Get returns the value stored under key in the default namespace.
func (f *Facade) Get(key string) (any, bool, error) {
	return f.ns.Get(key)
}

// Remove deletes key from the default namespace.
func (f *Facade) Remove(key string) (bool, error) {
	return f.unlocked(func() (bool, error) {
		return f.ns.Remove(key)
	})
}

// RemoveAll empties the default namespace. Other namespaces are left alone.
func (f *Facade) RemoveAll() (bool, error) {
	return f.unlocked(f.ns.RemoveAll)
}

// Destroy removes the default namespace from the session. When regenerate is
// true the host is asked for a new session ID, keeping the remaining data.
func (f *Facade) Destroy(ctx context.Context, regenerate bool) (bool, error) {
	ok, err := f.unlocked(f.ns.Destroy)
	if err != nil {
		return false, err
	}
	if regenerate {
		if err := f.store.RegenerateID(ctx, true); err != nil {
			return ok, fmt.Errorf("failed to regenerate session id: %w", err)
		}
	}
	return ok, nil
}

// unlocked runs fn with the default namespace unlocked and locks it again
// afterwards, whatever fn returned.
func (f *Facade) unlocked(fn func() (bool, error)) (bool, error) {
	if _, err := f.ns.Unlock(); err != nil {
		return false, err
	}
	ok, err := fn()
	if _, lockErr := f.ns.Lock(); lockErr != nil {
		f.logger.Warn("Failed to lock default namespace", "err", lockErr)
		if err == nil {
			err = lockErr
		}
	}
	return ok, err
}
