/*
Package domain contains the core types shared by every stash package.

It defines the reserved session keys, the session Snapshot exchanged with
persistence backends, the sentinel errors, and the observability hooks. This
package is kept pure and free of I/O.

# Key Entities

  - Snapshot: the full key-value content of one host session.
  - LockRegistryKey / DataRegistryKey: the two reserved entries holding namespace locks and data.
  - Hooks: callbacks fired on namespace mutations and lock denials.
*/
package domain
