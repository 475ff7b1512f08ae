/*
Package stash provides namespaced, lockable storage inside a user session.

A session is a flat key/value map owned by a host (an HTTP server, a worker, a test).
Stash partitions it into named namespaces, each with its own lock flag. A locked
namespace refuses every mutation (Set, Remove, RemoveAll, Destroy) with a false
result while reads keep working.

# Layout

  - pkg/namespace: the NamespaceStore, one view over one namespace of a session.
  - pkg/session: the Facade, a per-request wrapper of the reserved default namespace
    which stays locked except during its own mutations.
  - pkg/hostsession: an in-process session store for hosts and tests.
  - pkg/adapters: persistence backends (memory, file, redis, sqlite) and the
    HTTP and MCP hosts.

# Usage

	store := hostsession.New("", nil)
	f, err := session.New(ctx, store)
	if err != nil {
		log.Fatal(err)
	}
	f.Set("user_id", 42)
	v, ok, _ := f.Get("user_id")

The reserved session keys (__D5_pr and __D5_pb) keep the layout of sessions written
by earlier deployments, so existing sessions can be read without migration.
*/
package stash
