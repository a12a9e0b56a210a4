package identity

import "context"

type contextKey string

const contextKeyIdentity contextKey = "identity"

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, id)
}

// FromContext extracts the authenticated identity, or nil when absent.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(contextKeyIdentity).(*Identity); ok {
		return id
	}
	return nil
}
