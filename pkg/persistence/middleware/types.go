package middleware

import "github.com/aretw0/stash/pkg/ports"

// Middleware allows wrapping a Backend to add behavior.
type Middleware func(ports.Backend) ports.Backend

// Chain wraps backend with the given middlewares; the first one is outermost.
func Chain(backend ports.Backend, mws ...Middleware) ports.Backend {
	for i := len(mws) - 1; i >= 0; i-- {
		backend = mws[i](backend)
	}
	return backend
}
