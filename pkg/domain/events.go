package domain

import "time"

// Operation identifies a namespace operation.
type Operation string

const (
	OpLock      Operation = "lock"
	OpUnlock    Operation = "unlock"
	OpSet       Operation = "set"
	OpRemove    Operation = "remove"
	OpRemoveAll Operation = "remove_all"
	OpDestroy   Operation = "destroy"
)

// NamespaceEvent describes an operation applied to (or denied on) a namespace.
type NamespaceEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Namespace string    `json:"namespace"`
	Operation Operation `json:"operation"`
	Key       string    `json:"key,omitempty"`
}

// Hooks defines callbacks for namespace observability.
// Nil callbacks are skipped.
type Hooks struct {
	// OnMutation fires after a mutation (or lock change) took effect.
	OnMutation func(*NamespaceEvent)
	// OnDenied fires when a mutation was refused because the namespace is locked.
	OnDenied func(*NamespaceEvent)
}
