/*
Package namespace partitions a host session into named, lockable namespaces.

A Store is a cheap view over one namespace: it keeps no data of its own and
reads and writes the live ports.SessionStore on every call, so two Stores for
the same name observe each other's writes. When the session store implements
ports.AtomicSessionStore, each operation runs in one critical section, so
Stores can be used from several goroutines of the same request.

# Locking

A locked namespace still serves reads. Mutations on a locked namespace are
refused with a false result and a nil error; errors are reserved for setup and
validation failures:

	ns, err := namespace.New(ctx, store, "cart")
	if err != nil {
		return err // domain.ErrInvalidNamespaceName, domain.ErrSessionSetup
	}
	ns.Lock()
	ok, err := ns.Set("items", 3) // ok == false, err == nil

# Naming

Names are trimmed and must not be empty, must not start with a digit, and may
only start with an underscore when they carry the reserved domain.SessionPrefix.
*/
package namespace
