package namespace

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// Store is a view over one namespace of a host session.
type Store struct {
	name     string
	session  ports.SessionStore
	registry *registry.Registry
	hooks    domain.Hooks
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// New validates name, makes sure the session is active and prepares the
// registry entries of the namespace.
func New(ctx context.Context, session ports.SessionStore, name string, opts ...Option) (*Store, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	if err := session.EnsureActive(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session for namespace %q: %w", name, err)
	}

	s := &Store{
		name:     name,
		session:  session,
		registry: registry.New(session),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var repaired bool
	s.atomically(func(reg *registry.Registry) {
		repaired = reg.EnsureNamespace(name)
	})
	if repaired {
		s.logger.Debug("Namespace registry prepared", "namespace", name)
	}
	return s, nil
}

// Name returns the namespace name.
func (s *Store) Name() string {
	return s.name
}

// Lock prevents mutations on the namespace.
func (s *Store) Lock() (bool, error) {
	return s.setLocked(true)
}

// Unlock allows mutations on the namespace.
func (s *Store) Unlock() (bool, error) {
	return s.setLocked(false)
}

func (s *Store) setLocked(locked bool) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	s.atomically(func(reg *registry.Registry) {
		reg.SetLocked(s.name, locked)
	})

	op := domain.OpUnlock
	if locked {
		op = domain.OpLock
	}
	s.emit(s.hooks.OnMutation, op, "")
	return true, nil
}

// IsLocked reports whether the namespace is locked.
func (s *Store) IsLocked() (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	var locked bool
	s.atomically(func(reg *registry.Registry) {
		locked = reg.Locked(s.name)
	})
	return locked, nil
}

// Set stores value under key. A nil value is stored as such.
// Returns false when the namespace is locked.
func (s *Store) Set(key string, value any) (bool, error) {
	return s.mutate(domain.OpSet, key, func(reg *registry.Registry) {
		reg.DataOrCreate(s.name)[key] = value
		reg.Touch()
	})
}

// Get returns the value stored under key and whether it is present.
// Stored zero values (nil, 0, "", false) are reported present.
func (s *Store) Get(key string) (any, bool, error) {
	if err := s.validate(); err != nil {
		return nil, false, err
	}
	var (
		v  any
		ok bool
	)
	s.atomically(func(reg *registry.Registry) {
		if data, exists := reg.Data(s.name); exists {
			v, ok = data[key]
		}
	})
	return v, ok, nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// GetInto decodes the value stored under key into out (a pointer).
// It accepts values that went through a JSON round trip, so a struct written
// as-is can be read back after the session was persisted.
func (s *Store) GetInto(key string, out any) (bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to create decoder for %q: %w", key, err)
	}
	if err := decoder.Decode(v); err != nil {
		return false, fmt.Errorf("failed to decode %q in namespace %q: %w", key, s.name, err)
	}
	return true, nil
}

// GetAll returns a copy of the namespace content.
// The second result is false if the namespace was destroyed.
func (s *Store) GetAll() (map[string]any, bool, error) {
	if err := s.validate(); err != nil {
		return nil, false, err
	}
	var (
		all map[string]any
		ok  bool
	)
	s.atomically(func(reg *registry.Registry) {
		var data map[string]any
		if data, ok = reg.Data(s.name); ok {
			all = maps.Clone(data)
		}
	})
	return all, ok, nil
}

// Remove deletes key. Removing a missing key succeeds without changes.
// Returns false when the namespace is locked.
func (s *Store) Remove(key string) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	var present, locked bool
	s.atomically(func(reg *registry.Registry) {
		data, ok := reg.Data(s.name)
		if !ok {
			return
		}
		if _, present = data[key]; !present {
			return
		}
		if locked = reg.Locked(s.name); locked {
			return
		}
		delete(data, key)
		reg.Touch()
	})

	switch {
	case !present:
		return true, nil
	case locked:
		s.deny(domain.OpRemove, key)
		return false, nil
	}
	s.emit(s.hooks.OnMutation, domain.OpRemove, key)
	return true, nil
}

// RemoveAll empties the namespace.
// Returns false when the namespace is locked.
func (s *Store) RemoveAll() (bool, error) {
	return s.mutate(domain.OpRemoveAll, "", func(reg *registry.Registry) {
		reg.ResetData(s.name)
	})
}

// Destroy removes the namespace from the session entirely. Its lock flag is kept.
// Returns false when the namespace is locked.
func (s *Store) Destroy() (bool, error) {
	return s.mutate(domain.OpDestroy, "", func(reg *registry.Registry) {
		reg.DeleteData(s.name)
	})
}

// mutate runs fn when the session is active and the namespace unlocked.
// The lock check and fn happen in one atomic step; hooks fire afterwards.
func (s *Store) mutate(op domain.Operation, key string, fn func(reg *registry.Registry)) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	var locked bool
	s.atomically(func(reg *registry.Registry) {
		if locked = reg.Locked(s.name); !locked {
			fn(reg)
		}
	})
	if locked {
		s.deny(op, key)
		return false, nil
	}
	s.emit(s.hooks.OnMutation, op, key)
	return true, nil
}

// atomically runs fn against the session registry, inside the host's critical
// section when the session store supports one.
func (s *Store) atomically(fn func(reg *registry.Registry)) {
	if atomic, ok := s.session.(ports.AtomicSessionStore); ok {
		atomic.Atomically(func(view ports.SessionStore) {
			fn(registry.New(view))
		})
		return
	}
	fn(s.registry)
}

func (s *Store) deny(op domain.Operation, key string) {
	s.logger.Debug("Mutation denied, namespace is locked", "namespace", s.name, "op", op, "key", key)
	s.emit(s.hooks.OnDenied, op, key)
}

func (s *Store) validate() error {
	if !s.session.Active() {
		return fmt.Errorf("%w: namespace %q", domain.ErrSessionNotStarted, s.name)
	}
	return nil
}

func (s *Store) emit(fn func(*domain.NamespaceEvent), op domain.Operation, key string) {
	if fn == nil {
		return
	}
	fn(&domain.NamespaceEvent{
		Timestamp: time.Now(),
		Namespace: s.name,
		Operation: op,
		Key:       key,
	})
}
