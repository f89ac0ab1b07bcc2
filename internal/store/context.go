package store

import "context"

type handleKey struct{}

// ContextWithHandle returns a copy of ctx carrying h.
func ContextWithHandle(ctx context.Context, h Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// HandleFromContext returns the handle placed on ctx by the
// connection-ensure stage.
func HandleFromContext(ctx context.Context) (Handle, bool) {
	h, ok := ctx.Value(handleKey{}).(Handle)
	return h, ok
}
