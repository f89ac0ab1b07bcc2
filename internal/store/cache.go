package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// DefaultConnectTimeout bounds a single connection attempt.
const DefaultConnectTimeout = 10 * time.Second

// Handle is a live backing-store connection.
type Handle interface {
	Ping(ctx context.Context) error
	Close() error
}

// Dialer opens a new Handle.
type Dialer func(ctx context.Context) (Handle, error)

// attempt is one connection attempt. done is closed once handle or err
// is set.
type attempt struct {
	done   chan struct{}
	handle Handle
	err    error
}

// Option is a functional option for configuring the Cache.
type Option func(*Cache)

// WithConnectTimeout sets the per-attempt timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// WithTracer sets the tracer used for connection spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(c *Cache) {
		c.tracer = tracer
	}
}

// WithBackendName sets the backend label used in errors and logs.
func WithBackendName(name string) Option {
	return func(c *Cache) {
		c.backend = name
	}
}

// Cache lazily creates and reuses a single backing-store Handle.
type Cache struct {
	dial           Dialer
	backend        string
	connectTimeout time.Duration
	logger         observability.Logger
	metrics        *observability.Metrics
	tracer         *observability.Tracer

	mu      sync.Mutex
	current *attempt
	closed  bool
}

// NewCache creates a Cache that opens handles with dial.
func NewCache(dial Dialer, opts ...Option) *Cache {
	c := &Cache{
		dial:           dial,
		backend:        "store",
		connectTimeout: DefaultConnectTimeout,
		logger:         observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure returns the cached handle, connecting first if there is none.
// Concurrent callers share one in-flight attempt. If ctx ends first the
// caller gets ctx.Err() while the attempt carries on for the others.
func (c *Cache) Ensure(ctx context.Context) (Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCacheClosed
	}
	a := c.current
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		c.current = a
		go c.connect(a)
	}
	c.mu.Unlock()

	select {
	case <-a.done:
		return a.handle, a.err
	default:
	}

	select {
	case <-a.done:
		return a.handle, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// connect runs one attempt on a context detached from any request.
func (c *Cache) connect(a *attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()

	ctx, span := c.tracer.StartSpan(ctx, "store.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", c.backend)),
	)
	defer span.End()

	start := time.Now()
	h, err := c.dial(ctx)
	if err == nil && h == nil {
		err = ErrNilHandle
	}
	duration := time.Since(start)
	c.metrics.RecordStoreConnect(err, duration)

	c.mu.Lock()
	switch {
	case err != nil:
		a.err = &ConnectError{Backend: c.backend, Cause: err}
		if c.current == a {
			c.current = nil
		}
	case c.closed:
		a.err = ErrCacheClosed
	default:
		a.handle = h
	}
	c.mu.Unlock()

	if a.err != nil {
		span.RecordError(a.err)
		span.SetStatus(codes.Error, a.err.Error())
	}

	switch {
	case err != nil:
		c.logger.Error("backing store connection failed",
			observability.String("backend", c.backend),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
	case a.err != nil:
		_ = h.Close()
	default:
		c.logger.Info("backing store connected",
			observability.String("backend", c.backend),
			observability.Duration("duration", duration),
		)
	}

	close(a.done)
}

// Invalidate drops h from the cache if it is the current handle, so
// the next Ensure dials again. The handle is closed.
func (c *Cache) Invalidate(h Handle) {
	if h == nil {
		return
	}

	c.mu.Lock()
	a := c.current
	if a == nil || !settled(a) || a.handle != h {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.mu.Unlock()

	c.logger.Warn("backing store handle invalidated",
		observability.String("backend", c.backend),
	)
	_ = h.Close()
}

// Close closes the settled handle, if any, and rejects further Ensure
// calls. An attempt still in flight closes its handle when it finishes.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	a := c.current
	c.current = nil
	c.mu.Unlock()

	if a == nil || !settled(a) || a.handle == nil {
		return nil
	}
	return a.handle.Close()
}

// settled reports whether a has finished.
func settled(a *attempt) bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}
