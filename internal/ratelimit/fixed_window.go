package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// FixedWindowLimiter implements the fixed window rate limiting algorithm.
// A client's window opens at its first request and lasts for the
// configured duration; the count starts over once the window has passed.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	logger observability.Logger

	counters sync.Map

	stopOnce sync.Once
	stopCh   chan struct{}
}

// windowCounter represents a counter for one client window.
type windowCounter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	evicted     bool
}

// Option is a functional option for configuring the limiter.
type Option func(*FixedWindowLimiter)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindowLimiter) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(l *FixedWindowLimiter) {
		l.logger = logger
	}
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
// Non-positive values fall back to the defaults.
func NewFixedWindowLimiter(cfg Config, opts ...Option) *FixedWindowLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	l := &FixedWindowLimiter{
		limit:  cfg.Requests,
		window: cfg.Window,
		now:    time.Now,
		logger: observability.NopLogger(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow implements Limiter.
func (l *FixedWindowLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := l.now()

	for {
		value, _ := l.counters.LoadOrStore(key, &windowCounter{windowStart: now})
		wc := value.(*windowCounter)

		wc.mu.Lock()
		if wc.evicted {
			// Lost a race with Cleanup; the entry is gone from the map.
			wc.mu.Unlock()
			continue
		}

		if wc.count == 0 || now.After(wc.windowStart.Add(l.window)) {
			wc.windowStart = now
			wc.count = 0
		}
		wc.count++

		result := l.result(wc, now)
		wc.mu.Unlock()
		return result, nil
	}
}

// result builds the decision for wc. The caller holds wc.mu.
func (l *FixedWindowLimiter) result(wc *windowCounter, now time.Time) *Result {
	allowed := wc.count <= l.limit

	remaining := l.limit - wc.count
	if remaining < 0 {
		remaining = 0
	}

	resetAfter := wc.windowStart.Add(l.window).Sub(now)
	if resetAfter < 0 {
		resetAfter = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAfter
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}
}

// Limit returns the configured capacity.
func (l *FixedWindowLimiter) Limit() int {
	return l.limit
}

// Window returns the configured window length.
func (l *FixedWindowLimiter) Window() time.Duration {
	return l.window
}

// Reset implements Limiter.
func (l *FixedWindowLimiter) Reset(_ context.Context, key string) error {
	if value, ok := l.counters.LoadAndDelete(key); ok {
		wc := value.(*windowCounter)
		wc.mu.Lock()
		wc.evicted = true
		wc.mu.Unlock()
	}
	return nil
}

// Len returns the number of tracked clients.
func (l *FixedWindowLimiter) Len() int {
	n := 0
	l.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Cleanup removes counters whose window has passed and returns how many
// were removed.
func (l *FixedWindowLimiter) Cleanup() int {
	now := l.now()
	removed := 0

	l.counters.Range(func(key, value any) bool {
		wc := value.(*windowCounter)
		wc.mu.Lock()
		if now.After(wc.windowStart.Add(l.window)) {
			wc.evicted = true
			l.counters.Delete(key)
			removed++
		}
		wc.mu.Unlock()
		return true
	})

	if removed > 0 {
		l.logger.Debug("cleaned up expired rate limit windows",
			observability.Int("removed", removed),
		)
	}
	return removed
}

// StartCleanup starts a goroutine that calls Cleanup every interval until
// Stop is called.
func (l *FixedWindowLimiter) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop stops the cleanup goroutine. It is safe to call more than once,
// and on a nil limiter.
func (l *FixedWindowLimiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}
