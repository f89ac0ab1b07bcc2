// Package observability provides logging, metrics, and tracing
// functionality for the request pipeline.
//
// # Logging
//
// The Logger interface provides structured logging over zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("request processed",
//	    observability.String("method", "GET"),
//	    observability.Int("status", 200),
//	)
//
// # Metrics
//
// Prometheus metrics for requests, edge redirects, rate limiting and
// backing-store connection attempts live in their own registry:
//
//	metrics := observability.NewMetrics("cookverse")
//	handler := metrics.Handler()
//
// All Record methods are safe to call on a nil *Metrics.
//
// # Tracing
//
// OpenTelemetry tracing with optional OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	defer tracer.Shutdown(ctx)
package observability
