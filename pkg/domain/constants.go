package domain

// Reserved keys inside the host session store.
// These values are shared with sessions written by earlier deployments and must not change.
const (
	// SessionPrefix marks namespaces managed by the session facade.
	// Namespace names may only start with an underscore when they carry this prefix.
	SessionPrefix = "__D5_"

	// LockRegistryKey is the top-level session key holding the lock registry.
	LockRegistryKey = "__D5_pr"

	// DataRegistryKey is the top-level session key holding the data registry.
	DataRegistryKey = "__D5_pb"

	// DefaultNamespace is the namespace owned by the session facade.
	DefaultNamespace = SessionPrefix
)

// Field names nested inside the registry entries.
const (
	KeyLocks = "locks"
	KeyStore = "store"
)
