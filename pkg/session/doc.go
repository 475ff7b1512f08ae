/*
Package session provides the Facade: a per-request session context that owns
the default namespace and keeps it locked between mutations.

The host request pipeline builds one Facade per request and passes it down,
either explicitly or through the request context:

	f, err := session.New(ctx, store)
	if err != nil {
		return err // domain.ErrSessionSetup when the response is already committed
	}
	ctx = session.NewContext(ctx, f)

	// later, deep in a handler
	f, _ := session.FromContext(ctx)
	f.Set("user_id", 42)

The facade namespace is locked by default. Set, Remove, RemoveAll and Destroy
unlock it, delegate to the namespace, and lock it again; Get never touches the
lock.
*/
package session
