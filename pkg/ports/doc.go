/*
Package ports defines the driven ports (interfaces) for stash.

These interfaces decouple the namespace layer from the host environment,
allowing namespaces to sit on top of any session mechanism and any
persistence backend.

# Key Interfaces

  - SessionStore: the live key-value session of the current caller (the collaborator contract).
  - Backend: persists whole session snapshots between requests (memory, Redis, files, SQLite).
*/
package ports
