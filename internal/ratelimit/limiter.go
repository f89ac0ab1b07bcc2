// Package ratelimit provides the per-client fixed window rate limiter used
// by the request pipeline.
//
// State is held in process memory. Each warm instance counts on its own,
// so with N instances a client can be admitted up to N times the
// configured capacity within one window.
package ratelimit

import (
	"context"
	"time"
)

// Default limiter settings.
const (
	// DefaultRequests is the number of requests admitted per window.
	DefaultRequests = 100

	// DefaultWindow is the length of a client's window.
	DefaultWindow = 15 * time.Minute
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow records one request for key and reports whether it is admitted.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset forgets the state held for key.
	Reset(ctx context.Context, key string) error
}

// Result represents the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAfter is the duration until the rate limit resets.
	ResetAfter time.Duration

	// RetryAfter is the duration to wait before retrying (when not allowed).
	RetryAfter time.Duration
}

// Config holds configuration for creating a rate limiter.
type Config struct {
	// Requests is the maximum number of requests allowed in the window.
	Requests int

	// Window is the time window for the rate limit.
	Window time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Requests: DefaultRequests,
		Window:   DefaultWindow,
	}
}

// NoopLimiter is a rate limiter that always allows requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(_ context.Context, _ string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(_ context.Context, _ string) error {
	return nil
}
