package util

import (
	"context"
	"sync"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyStartTime ctxKey = "start_time"
	ctxKeyRoute     ctxKey = "route"
)

// ContextWithStartTime adds a start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// routeHolder is a mutable slot for the matched route. Outer stages
// install it so that they can read the route chosen further down the
// chain after the handler returns.
type routeHolder struct {
	mu    sync.Mutex
	route string
}

// ContextWithRouteHolder installs an empty route slot in the context.
func ContextWithRouteHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeyRoute, &routeHolder{})
}

// SetRoute records the matched route prefix. It is a no-op when no
// holder was installed.
func SetRoute(ctx context.Context, route string) {
	if h, ok := ctx.Value(ctxKeyRoute).(*routeHolder); ok {
		h.mu.Lock()
		h.route = route
		h.mu.Unlock()
	}
}

// RouteFromContext extracts the matched route prefix from context.
func RouteFromContext(ctx context.Context) string {
	if h, ok := ctx.Value(ctxKeyRoute).(*routeHolder); ok {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.route
	}
	return ""
}

// ElapsedTime returns the elapsed time since the start time in context.
func ElapsedTime(ctx context.Context) time.Duration {
	startTime := StartTimeFromContext(ctx)
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}
