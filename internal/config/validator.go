package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e[i].Error())
	}
	return sb.String()
}

// Is reports a match for util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// Validate checks cfg and returns ValidationErrors listing every problem.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", util.ErrConfigInvalid)
	}

	v := &validator{}
	v.validateRuntime(cfg)
	v.validateServer(&cfg.Server)
	v.validateStore(&cfg.Store)
	v.validateRateLimit(&cfg.RateLimit)
	v.validateEdge(&cfg.Edge)
	v.validateObservability(cfg)

	if cfg.CORS.Origin == "" {
		v.add("cors.origin", "must not be empty")
	}
	if cfg.Body.MaxBytes <= 0 {
		v.add("body.maxBytes", "must be positive")
	}

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

type validator struct {
	errors ValidationErrors
}

func (v *validator) add(path, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateRuntime(cfg *Config) {
	switch cfg.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		v.add("environment", "must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Environment)
	}
	if cfg.Platform == "" {
		v.add("platform", "must not be empty")
	}
}

func (v *validator) validateServer(s *ServerConfig) {
	if s.Port < 1 || s.Port > 65535 {
		v.add("server.port", "must be between 1 and 65535, got %d", s.Port)
	}
	if s.ShutdownTimeout < 0 {
		v.add("server.shutdownTimeout", "must not be negative")
	}
	for i, p := range s.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			v.add(fmt.Sprintf("server.trustedProxies[%d]", i), "invalid IP or CIDR %q", p)
		}
	}
}

func (v *validator) validateStore(s *StoreConfig) {
	if s.URI == "" {
		v.add("store.uri", "must not be empty")
	} else if u, err := url.Parse(s.URI); err != nil {
		v.add("store.uri", "invalid URI: %v", err)
	} else if u.Scheme != "redis" && u.Scheme != "rediss" {
		v.add("store.uri", "unsupported scheme %q, expected redis or rediss", u.Scheme)
	}
	if s.ConnectTimeout <= 0 {
		v.add("store.connectTimeout", "must be positive")
	}
	if s.PoolSize < 0 {
		v.add("store.poolSize", "must not be negative")
	}
}

func (v *validator) validateRateLimit(r *RateLimitConfig) {
	if !r.Enabled {
		return
	}
	if r.Requests <= 0 {
		v.add("rateLimit.requests", "must be positive")
	}
	if r.Window <= 0 {
		v.add("rateLimit.window", "must be positive")
	}
	if r.CleanupInterval < 0 {
		v.add("rateLimit.cleanupInterval", "must not be negative")
	}
}

func (v *validator) validateEdge(e *EdgeConfig) {
	if e.RedirectTarget != "" && !strings.HasPrefix(e.RedirectTarget, "/") {
		v.add("edge.redirectTarget", "must start with /")
	}
	checkPaths := func(field string, paths []string) {
		for i, p := range paths {
			if !strings.HasPrefix(p, "/") {
				v.add(fmt.Sprintf("edge.%s[%d]", field, i), "must start with /")
			}
		}
	}
	checkPaths("reservedPrefixes", e.ReservedPrefixes)
	checkPaths("loginPaths", e.LoginPaths)
	for i, s := range e.AuthSegments {
		if s == "" || strings.Contains(s, "/") {
			v.add(fmt.Sprintf("edge.authSegments[%d]", i), "must be a single path segment")
		}
	}
}

func (v *validator) validateObservability(cfg *Config) {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.add("logging.level", "unsupported level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		v.add("logging.format", "unsupported format %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Address == "" {
			v.add("metrics.address", "must not be empty")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			v.add("metrics.path", "must start with /")
		}
	}

	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		v.add("tracing.samplingRate", "must be between 0 and 1")
	}
}

// AsValidationErrors extracts ValidationErrors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
