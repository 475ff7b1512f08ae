package session

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying f.
func NewContext(ctx context.Context, f *Facade) context.Context {
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext returns the Facade stored in ctx, if any.
func FromContext(ctx context.Context) (*Facade, bool) {
	f, ok := ctx.Value(contextKey{}).(*Facade)
	return f, ok
}
