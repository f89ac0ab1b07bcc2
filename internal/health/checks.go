package health

import (
	"context"

	"github.com/vyrodovalexey/cookverse-gateway/internal/store"
)

// StoreEnsurer hands out the backing-store handle.
type StoreEnsurer interface {
	Ensure(ctx context.Context) (store.Handle, error)
}

// invalidator is implemented by caches that can drop a broken handle.
type invalidator interface {
	Invalidate(h store.Handle)
}

// StoreCheck reports the backing store as healthy when a handle can be
// obtained and answers a ping. A handle that fails the ping is dropped
// from caches that support it, so the next request reconnects.
func StoreCheck(cache StoreEnsurer) CheckFunc {
	return func(ctx context.Context) Check {
		h, err := cache.Ensure(ctx)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		if err := h.Ping(ctx); err != nil {
			if inv, ok := cache.(invalidator); ok {
				inv.Invalidate(h)
			}
			return Check{Status: StatusUnhealthy, Message: "ping failed: " + err.Error()}
		}
		return Check{Status: StatusHealthy}
	}
}
