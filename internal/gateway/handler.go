package gateway

import (
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/cookverse-gateway/internal/config"
	"github.com/vyrodovalexey/cookverse-gateway/internal/edge"
	"github.com/vyrodovalexey/cookverse-gateway/internal/features"
	"github.com/vyrodovalexey/cookverse-gateway/internal/health"
	"github.com/vyrodovalexey/cookverse-gateway/internal/middleware"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/ratelimit"
	"github.com/vyrodovalexey/cookverse-gateway/internal/router"
)

// Paths served by the gateway itself.
const (
	HealthPath    = "/api/health"
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
)

// buildHandler assembles edge filter, boundary, chain and route table.
func (g *Gateway) buildHandler() (http.Handler, error) {
	cfg := g.config

	table, err := router.New(g.routes())
	if err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}

	chain := pipeline.NewChain(g.stages()...)

	boundary := pipeline.Boundary(chain.Then(table),
		pipeline.WithLogger(g.logger),
		pipeline.WithMetrics(g.metrics),
		pipeline.WithTracer(g.tracer),
		pipeline.WithProduction(cfg.IsProduction()),
	)

	return edge.New(boundary, edgeConfig(cfg.Edge),
		edge.WithLogger(g.logger),
		edge.WithMetrics(g.metrics),
	), nil
}

// stages returns the middleware chain in execution order.
func (g *Gateway) stages() []pipeline.Stage {
	cfg := g.config
	ips := middleware.NewClientIPExtractor(cfg.Server.TrustedProxies)

	var limiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if g.limiter != nil {
		limiter = g.limiter
	}

	return []pipeline.Stage{
		middleware.RequestID(),
		middleware.Logging(g.logger, ips),
		middleware.SecurityHeaders(middleware.DefaultSecurityHeaders()),
		middleware.CORS(middleware.CORSForOrigin(cfg.CORS.Origin)),
		middleware.RateLimit(limiter, ips,
			middleware.WithRateLimitLogger(g.logger),
			middleware.WithRateLimitMetrics(g.metrics),
		),
		middleware.BodyParser(cfg.Body.MaxBytes,
			middleware.WithBodyParserLogger(g.logger),
			middleware.WithBodyParserMetrics(g.metrics),
		),
		middleware.Connection(g.cache),
	}
}

// routes returns the health route followed by the collaborators.
func (g *Gateway) routes() []router.Route {
	routes := []router.Route{{
		Name:    "health",
		Prefix:  HealthPath,
		Exact:   true,
		Methods: []string{http.MethodGet},
		Handler: health.Handler(g.config.Platform),
	}}
	return append(routes, features.Routes(features.Registry(g.features))...)
}

// buildOpsHandler serves metrics and probes for the operational listener.
func (g *Gateway) buildOpsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(g.config.Metrics.Path, g.metrics.Handler())
	mux.HandleFunc(LivenessPath, g.checker.LivenessHandler())
	mux.HandleFunc(ReadinessPath, g.checker.ReadinessHandler())
	return mux
}

func edgeConfig(c config.EdgeConfig) edge.Config {
	return edge.Config{
		ReservedPrefixes: c.ReservedPrefixes,
		LoginPaths:       c.LoginPaths,
		AuthSegments:     c.AuthSegments,
		RedirectTarget:   c.RedirectTarget,
	}
}
