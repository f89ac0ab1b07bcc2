package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/cookverse-gateway/internal/config"
	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// server is the part of the gateway driven by main.
type server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// tracerShutdowner flushes pending spans.
type tracerShutdowner interface {
	Shutdown(ctx context.Context) error
}

// runGateway starts the gateway and blocks until SIGINT or SIGTERM.
func runGateway(gw server, tracer tracerShutdowner, cfg *config.Config, logger observability.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serveUntilDone(ctx, gw, tracer, cfg, logger); err != nil {
		fatalWithSync(logger, "failed to start gateway", observability.Error(err))
	}
}

// serveUntilDone starts gw, waits for ctx to end, then shuts down.
func serveUntilDone(
	ctx context.Context,
	gw server,
	tracer tracerShutdowner,
	cfg *config.Config,
	logger observability.Logger,
) error {
	if err := gw.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdown(gw, tracer, cfg, logger)
	return nil
}

// shutdown stops the gateway within the configured timeout, then
// flushes the tracer.
func shutdown(gw server, tracer tracerShutdowner, cfg *config.Config, logger observability.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	if tracer != nil {
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown tracer", observability.Error(err))
		}
	}

	logger.Info("gateway stopped")
}
