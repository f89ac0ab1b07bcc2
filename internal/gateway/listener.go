package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// ListenerConfig configures one HTTP listener.
type ListenerConfig struct {
	Name              string
	Address           string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Listener serves a handler on one TCP address.
type Listener struct {
	config  ListenerConfig
	handler http.Handler
	logger  observability.Logger

	mu      sync.Mutex
	server  *http.Server
	addr    net.Addr
	running atomic.Bool
	done    chan struct{}
}

// NewListener creates a new listener.
func NewListener(cfg ListenerConfig, handler http.Handler, logger observability.Logger) *Listener {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Listener{
		config:  cfg,
		handler: handler,
		logger:  logger,
	}
}

// Name returns the listener name.
func (l *Listener) Name() string {
	return l.config.Name
}

// Addr returns the bound address, or nil when the listener is not serving.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Start binds the address and serves in the background.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return fmt.Errorf("listener %s is already running", l.config.Name)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.config.Address, err)
	}

	l.server = &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: l.config.ReadHeaderTimeout,
		ReadTimeout:       l.config.ReadTimeout,
		WriteTimeout:      l.config.WriteTimeout,
		IdleTimeout:       l.config.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
	l.addr = ln.Addr()
	l.done = make(chan struct{})
	l.running.Store(true)

	l.logger.Info("listener started",
		observability.String("name", l.config.Name),
		observability.String("address", l.addr.String()),
	)

	go l.serve(l.server, ln, l.done)

	return nil
}

func (l *Listener) serve(server *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.logger.Error("listener error",
			observability.String("name", l.config.Name),
			observability.Error(err),
		)
	}
	l.running.Store(false)
}

// Stop drains in-flight requests until ctx expires, then closes.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	server, done := l.server, l.done
	l.mu.Unlock()

	if server == nil || !l.running.Load() {
		return nil
	}

	l.logger.Info("stopping listener", observability.String("name", l.config.Name))

	if err := server.Shutdown(ctx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close listener: %w", closeErr)
		}
		return fmt.Errorf("failed to shutdown listener gracefully: %w", err)
	}
	<-done

	l.mu.Lock()
	l.addr = nil
	l.mu.Unlock()

	l.logger.Info("listener stopped", observability.String("name", l.config.Name))
	return nil
}

// IsRunning returns true if the listener is running.
func (l *Listener) IsRunning() bool {
	return l.running.Load()
}
