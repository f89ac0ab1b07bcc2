package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/config"
	"github.com/vyrodovalexey/cookverse-gateway/internal/features"
	"github.com/vyrodovalexey/cookverse-gateway/internal/health"
	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/ratelimit"
	"github.com/vyrodovalexey/cookverse-gateway/internal/store"
)

// State represents the gateway state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
	// StateClosed indicates the gateway has been stopped and released its
	// backing-store handle and limiter. It cannot be started again.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Gateway owns the pipeline and its listeners.
type Gateway struct {
	config   *config.Config
	logger   observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	dialer   store.Dialer
	features features.Set

	cache   *store.Cache
	limiter *ratelimit.FixedWindowLimiter
	checker *health.Checker
	handler http.Handler
	ops     http.Handler

	public    *Listener
	opsServer *Listener

	state     atomic.Int32
	startTime time.Time
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithMetrics sets the metrics registry. By default the gateway creates
// its own.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer *observability.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tracer
	}
}

// WithDialer replaces the Redis dialer built from the store URI.
func WithDialer(dial store.Dialer) Option {
	return func(g *Gateway) {
		g.dialer = dial
	}
}

// WithFeatures mounts collaborator handler-sets.
func WithFeatures(set features.Set) Option {
	return func(g *Gateway) {
		g.features = set
	}
}

// New creates a Gateway from cfg. No connection is made and no port is
// bound until the first request or Start.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	g := &Gateway{
		config: cfg,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = observability.NewMetrics("cookverse")
	}

	if g.dialer == nil {
		dial, err := store.NewRedisDialer(cfg.Store.URI, store.RedisOptions{
			PoolSize:    cfg.Store.PoolSize,
			DialTimeout: cfg.Store.ConnectTimeout.Duration(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create store dialer: %w", err)
		}
		g.dialer = dial
	}

	g.cache = store.NewCache(g.dialer,
		store.WithConnectTimeout(cfg.Store.ConnectTimeout.Duration()),
		store.WithBackendName("redis"),
		store.WithLogger(g.logger),
		store.WithMetrics(g.metrics),
		store.WithTracer(g.tracer),
	)

	if cfg.RateLimit.Enabled {
		g.limiter = ratelimit.NewFixedWindowLimiter(ratelimit.Config{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window.Duration(),
		}, ratelimit.WithLogger(g.logger))
	}

	g.checker = health.NewChecker()
	g.checker.RegisterCheck("store", health.StoreCheck(g.cache))

	handler, err := g.buildHandler()
	if err != nil {
		return nil, err
	}
	g.handler = handler
	g.ops = g.buildOpsHandler()

	g.public = NewListener(ListenerConfig{
		Name:              "public",
		Address:           cfg.Address(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Duration(),
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:       cfg.Server.IdleTimeout.Duration(),
	}, g.handler, g.logger)

	if cfg.Metrics.Enabled {
		g.opsServer = NewListener(ListenerConfig{
			Name:              "ops",
			Address:           cfg.Metrics.Address,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
		}, g.ops, g.logger)
	}

	g.state.Store(int32(StateStopped))

	return g, nil
}

// Handler returns the public request handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// OpsHandler returns the handler serving metrics and probes.
func (g *Gateway) OpsHandler() http.Handler {
	return g.ops
}

// Cache returns the backing-store connection cache.
func (g *Gateway) Cache() *store.Cache {
	return g.cache
}

// Start binds the listeners and starts background maintenance. A gateway
// runs once: after Stop, Start returns ErrGatewayClosed.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		if g.State() == StateClosed {
			return ErrGatewayClosed
		}
		return ErrGatewayNotStopped
	}

	g.logger.Info("starting gateway",
		observability.String("environment", g.config.Environment),
		observability.String("address", g.config.Address()),
	)

	if err := g.public.Start(ctx); err != nil {
		g.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to start listener %s: %w", g.public.Name(), err)
	}

	if g.opsServer != nil {
		if err := g.opsServer.Start(ctx); err != nil {
			_ = g.public.Stop(ctx)
			g.state.Store(int32(StateStopped))
			return fmt.Errorf("failed to start listener %s: %w", g.opsServer.Name(), err)
		}
	}

	// Cleanup starts last: stopping the limiter is final, so a failed
	// Start must not have launched it.
	if g.limiter != nil && g.config.RateLimit.CleanupInterval > 0 {
		g.limiter.StartCleanup(g.config.RateLimit.CleanupInterval.Duration())
	}

	g.startTime = time.Now()
	g.state.Store(int32(StateRunning))

	g.logger.Info("gateway started")

	return nil
}

// Stop drains the listeners, then releases the process-wide state: the
// limiter's cleanup goroutine and the backing-store handle. The gateway
// ends in StateClosed.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrGatewayNotRunning
	}

	g.logger.Info("stopping gateway")

	var errs []error
	if err := g.public.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if g.opsServer != nil {
		if err := g.opsServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	g.limiter.Stop()

	if err := g.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close backing store: %w", err))
	}

	g.state.Store(int32(StateClosed))

	g.logger.Info("gateway stopped", observability.Duration("uptime", g.Uptime()))

	return errors.Join(errs...)
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Uptime returns the gateway uptime.
func (g *Gateway) Uptime() time.Duration {
	if g.startTime.IsZero() {
		return 0
	}
	return time.Since(g.startTime)
}

// PublicAddr returns the bound address of the public listener.
func (g *Gateway) PublicAddr() string {
	if addr := g.public.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// OpsAddr returns the bound address of the operational listener.
func (g *Gateway) OpsAddr() string {
	if g.opsServer == nil {
		return ""
	}
	if addr := g.opsServer.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}
