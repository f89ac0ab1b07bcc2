// Package edge implements the host-boundary filter that runs before any
// application code. It redirects reserved, login and authentication
// paths to the site root and marks every other response with advisory
// auth-skip headers.
//
// The headers are informational only. They grant nothing; handlers
// behind the filter must authenticate requests on their own.
package edge

import (
	"net/http"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// Redirect reasons, used as log fields and metric labels.
const (
	ReasonReservedPrefix = "reserved_prefix"
	ReasonLogin          = "login"
	ReasonAuthSegment    = "auth_segment"
)

// Advisory headers set on every response that is not redirected.
var advisoryHeaders = map[string]string{
	"X-Middleware-Skip-Auth": "true",
	"X-Vercel-Skip-Auth":     "true",
	"X-Auth-Return-Redirect": "/",
	"X-Auth-Skip":            "true",
}

// Config controls which paths are intercepted.
type Config struct {
	// ReservedPrefixes are platform-internal path prefixes.
	ReservedPrefixes []string
	// LoginPaths are matched exactly.
	LoginPaths []string
	// AuthSegments are matched against each path segment.
	AuthSegments []string
	// RedirectTarget is the Location of every redirect.
	RedirectTarget string
}

// DefaultConfig returns the interception policy for the hosted platform.
func DefaultConfig() Config {
	return Config{
		ReservedPrefixes: []string{"/_vercel"},
		LoginPaths:       []string{"/login"},
		AuthSegments:     []string{"auth", "authentication"},
		RedirectTarget:   "/",
	}
}

// Option is a functional option for configuring the Filter.
type Option func(*Filter)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(f *Filter) {
		f.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(f *Filter) {
		f.metrics = metrics
	}
}

// Filter wraps the application handler.
type Filter struct {
	next     http.Handler
	reserved []string
	login    map[string]struct{}
	segments map[string]struct{}
	target   string
	logger   observability.Logger
	metrics  *observability.Metrics
}

// New creates a Filter in front of next. Empty Config fields take their
// DefaultConfig values.
func New(next http.Handler, cfg Config, opts ...Option) *Filter {
	defaults := DefaultConfig()
	if cfg.ReservedPrefixes == nil {
		cfg.ReservedPrefixes = defaults.ReservedPrefixes
	}
	if cfg.LoginPaths == nil {
		cfg.LoginPaths = defaults.LoginPaths
	}
	if cfg.AuthSegments == nil {
		cfg.AuthSegments = defaults.AuthSegments
	}
	if cfg.RedirectTarget == "" {
		cfg.RedirectTarget = defaults.RedirectTarget
	}

	f := &Filter{
		next:     next,
		reserved: cfg.ReservedPrefixes,
		login:    toSet(cfg.LoginPaths),
		segments: toSet(cfg.AuthSegments),
		target:   cfg.RedirectTarget,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Classify reports whether path is intercepted and why.
func (f *Filter) Classify(path string) (string, bool) {
	if path == f.target {
		return "", false
	}
	for _, prefix := range f.reserved {
		if strings.HasPrefix(path, prefix) {
			return ReasonReservedPrefix, true
		}
	}
	if _, ok := f.login[path]; ok {
		return ReasonLogin, true
	}
	for _, segment := range strings.Split(path, "/") {
		if _, ok := f.segments[segment]; ok {
			return ReasonAuthSegment, true
		}
	}
	return "", false
}

// ServeHTTP implements http.Handler.
func (f *Filter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if reason, intercept := f.Classify(r.URL.Path); intercept {
		f.metrics.RecordEdgeRedirect(reason)
		f.logger.Debug("edge redirect",
			observability.String("path", r.URL.Path),
			observability.String("reason", reason),
		)
		w.Header().Set("Location", f.target)
		w.WriteHeader(http.StatusMovedPermanently)
		return
	}

	header := w.Header()
	for k, v := range advisoryHeaders {
		header.Set(k, v)
	}
	f.next.ServeHTTP(w, r)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
