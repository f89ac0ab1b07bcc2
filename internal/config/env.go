package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// Environment variables read by the loader.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvMongoURI     = "MONGODB_URI"
	EnvFrontendURL  = "FRONTEND_URL"
	EnvAppEnv       = "APP_ENV"
	EnvNodeEnv      = "NODE_ENV"
	EnvPort         = "PORT"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
	EnvMetricsAddr  = "METRICS_ADDRESS"
	EnvTrusted      = "TRUSTED_PROXIES"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvPlatform     = "PLATFORM_NAME"
)

// applyEnv overrides cfg with environment values. Where two variables
// name the same setting the first listed one wins.
func applyEnv(cfg *Config, getenv LookupFunc) error {
	if v, ok := firstSet(getenv, EnvDatabaseURL, EnvMongoURI); ok {
		cfg.Store.URI = v
	}
	if v, ok := firstSet(getenv, EnvFrontendURL); ok {
		cfg.CORS.Origin = v
	}
	if v, ok := firstSet(getenv, EnvAppEnv, EnvNodeEnv); ok {
		cfg.Environment = v
	}
	if v, ok := firstSet(getenv, EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return util.NewConfigErrorWithCause(EnvPort, fmt.Sprintf("invalid value %q", v), err)
		}
		cfg.Server.Port = port
	}
	if v, ok := firstSet(getenv, EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := firstSet(getenv, EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := firstSet(getenv, EnvMetricsAddr); ok {
		cfg.Metrics.Address = v
	}
	if v, ok := firstSet(getenv, EnvTrusted); ok {
		cfg.Server.TrustedProxies = splitList(v)
	}
	if v, ok := firstSet(getenv, EnvOTLPEndpoint); ok {
		cfg.Tracing.Endpoint = v
		cfg.Tracing.Enabled = true
	}
	if v, ok := firstSet(getenv, EnvPlatform); ok {
		cfg.Platform = v
	}
	return nil
}

// firstSet returns the first non-empty value among keys.
func firstSet(getenv LookupFunc, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := getenv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
