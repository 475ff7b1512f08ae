package registry

import (
	"sort"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// Registry gives typed access to the two reserved entries of a session:
//
//	__D5_pr => {"locks": {namespace: bool}}
//	__D5_pb => {"store": {namespace: {field: value}}}
//
// It holds no state of its own; every call reads the live session store.
type Registry struct {
	store ports.SessionStore
}

// New creates a Registry over the given session store.
func New(store ports.SessionStore) *Registry {
	return &Registry{store: store}
}

// EnsureNamespace makes sure both registry entries exist and are well formed for name.
// It is safe to call any number of times. When the lock entry is not a boolean, or the
// data entry is missing or not a map, both are reset (unlocked, empty).
// Reports whether anything had to be repaired.
func (r *Registry) EnsureNamespace(name string) bool {
	locks := r.locks(true)
	data := r.namespaces(true)

	lock, hasLock := locks[name]
	_, lockIsBool := lock.(bool)
	entry, hasData := data[name]
	_, dataIsMap := entry.(map[string]any)

	switch {
	case hasLock && !lockIsBool, !hasData, !dataIsMap:
		locks[name] = false
		data[name] = make(map[string]any)
	case !hasLock:
		locks[name] = false
	default:
		return false
	}

	r.flush()
	return true
}

// Locked reports whether name is locked. Anything other than boolean true is unlocked.
func (r *Registry) Locked(name string) bool {
	locked, _ := r.locks(false)[name].(bool)
	return locked
}

// SetLocked stores the lock flag for name.
func (r *Registry) SetLocked(name string, locked bool) {
	r.locks(true)[name] = locked
	r.store.Write(domain.LockRegistryKey, r.lockRoot(true))
}

// Data returns the live data map of name and whether the namespace entry exists.
func (r *Registry) Data(name string) (map[string]any, bool) {
	data, ok := r.namespaces(false)[name].(map[string]any)
	return data, ok
}

// DataOrCreate returns the live data map of name, creating an empty one if needed.
func (r *Registry) DataOrCreate(name string) map[string]any {
	namespaces := r.namespaces(true)
	data, ok := namespaces[name].(map[string]any)
	if !ok {
		data = make(map[string]any)
		namespaces[name] = data
	}
	return data
}

// ResetData replaces the data map of name with an empty one.
func (r *Registry) ResetData(name string) {
	r.namespaces(true)[name] = make(map[string]any)
	r.store.Write(domain.DataRegistryKey, r.dataRoot(true))
}

// DeleteData removes the namespace entry from the data registry entirely.
// The lock registry is left untouched.
func (r *Registry) DeleteData(name string) {
	namespaces := r.namespaces(false)
	if namespaces == nil {
		return
	}
	delete(namespaces, name)
	r.store.Write(domain.DataRegistryKey, r.dataRoot(false))
}

// Touch writes the data registry back to the session store after an in-place change.
func (r *Registry) Touch() {
	if root := r.dataRoot(false); root != nil {
		r.store.Write(domain.DataRegistryKey, root)
	}
}

// Namespaces returns the sorted names present in the data registry.
func (r *Registry) Namespaces() []string {
	namespaces := r.namespaces(false)
	names := make([]string, 0, len(namespaces))
	for name := range namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamespaceInfo summarizes one namespace of a session.
type NamespaceInfo struct {
	Name   string         `json:"name"`
	Locked bool           `json:"locked"`
	Exists bool           `json:"exists"`
	Data   map[string]any `json:"data,omitempty"`
}

// Describe summarizes every namespace present in either registry, sorted by name.
// A destroyed namespace keeps its lock entry and is reported with Exists false.
func (r *Registry) Describe() []NamespaceInfo {
	seen := make(map[string]struct{})
	for name := range r.locks(false) {
		seen[name] = struct{}{}
	}
	for name := range r.namespaces(false) {
		seen[name] = struct{}{}
	}

	infos := make([]NamespaceInfo, 0, len(seen))
	for name := range seen {
		data, ok := r.Data(name)
		infos = append(infos, NamespaceInfo{
			Name:   name,
			Locked: r.Locked(name),
			Exists: ok,
			Data:   data,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (r *Registry) flush() {
	r.store.Write(domain.LockRegistryKey, r.lockRoot(true))
	r.store.Write(domain.DataRegistryKey, r.dataRoot(true))
}

func (r *Registry) lockRoot(create bool) map[string]any {
	return r.root(domain.LockRegistryKey, create)
}

func (r *Registry) dataRoot(create bool) map[string]any {
	return r.root(domain.DataRegistryKey, create)
}

func (r *Registry) locks(create bool) map[string]any {
	return child(r.lockRoot(create), domain.KeyLocks, create)
}

func (r *Registry) namespaces(create bool) map[string]any {
	return child(r.dataRoot(create), domain.KeyStore, create)
}

// root returns the top-level registry map, replacing a malformed value when create is set.
func (r *Registry) root(key string, create bool) map[string]any {
	v, _ := r.store.Read(key)
	switch m := v.(type) {
	case map[string]any:
		return m
	case domain.Snapshot:
		return m
	}
	if !create {
		return nil
	}
	m := make(map[string]any)
	r.store.Write(key, m)
	return m
}

func child(parent map[string]any, key string, create bool) map[string]any {
	if parent == nil {
		return nil
	}
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	if !create {
		return nil
	}
	m := make(map[string]any)
	parent[key] = m
	return m
}
