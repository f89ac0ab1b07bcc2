package config

import (
	"strconv"
	"strings"
	"time"
)

// Runtime modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// NormalizeEnvironment maps a runtime-mode name onto one of the two modes
// the gateway distinguishes. Only "production" (any case) is production;
// every other value, including "test" and "staging", is development.
func NormalizeEnvironment(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), EnvProduction) {
		return EnvProduction
	}
	return EnvDevelopment
}

// Defaults.
const (
	DefaultPort            = 5000
	DefaultStoreURI        = "redis://localhost:6379/0"
	DefaultCORSOrigin      = "*"
	DefaultPlatform        = "Vercel Serverless"
	DefaultMetricsAddress  = ":9090"
	DefaultMetricsPath     = "/metrics"
	DefaultServiceName     = "cookverse-gateway"
	DefaultRateLimitMax    = 100
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultMaxBodyBytes    = 10 << 20
)

// Config is the complete gateway configuration.
type Config struct {
	// Environment is the runtime mode, development or production.
	Environment string `yaml:"environment" json:"environment"`

	// Platform is the label reported by the health endpoint.
	Platform string `yaml:"platform" json:"platform"`

	Server    ServerConfig    `yaml:"server" json:"server"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	CORS      CORSConfig      `yaml:"cors" json:"cors"`
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
	Body      BodyConfig      `yaml:"body" json:"body"`
	Edge      EdgeConfig      `yaml:"edge" json:"edge"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Port              int      `yaml:"port" json:"port"`
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout,omitempty" json:"readHeaderTimeout,omitempty"`
	ReadTimeout       Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout      Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout       Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// TrustedProxies lists peers (IPs or CIDRs) whose X-Forwarded-For
	// header is honoured when resolving the client address.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
}

// StoreConfig configures the backing store connection.
type StoreConfig struct {
	URI            string   `yaml:"uri" json:"uri"`
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	PoolSize       int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
}

// CORSConfig configures the origin policy.
type CORSConfig struct {
	// Origin is the allowed origin, or a comma separated list of them.
	Origin string `yaml:"origin" json:"origin"`
}

// RateLimitConfig configures the fixed-window rate limiter.
type RateLimitConfig struct {
	Enabled         bool     `yaml:"enabled" json:"enabled"`
	Requests        int      `yaml:"requests" json:"requests"`
	Window          Duration `yaml:"window" json:"window"`
	CleanupInterval Duration `yaml:"cleanupInterval,omitempty" json:"cleanupInterval,omitempty"`
}

// BodyConfig configures request body parsing.
type BodyConfig struct {
	MaxBytes int64 `yaml:"maxBytes" json:"maxBytes"`
}

// EdgeConfig configures the edge redirect filter. Unset lists keep the
// built-in defaults.
type EdgeConfig struct {
	ReservedPrefixes []string `yaml:"reservedPrefixes,omitempty" json:"reservedPrefixes,omitempty"`
	LoginPaths       []string `yaml:"loginPaths,omitempty" json:"loginPaths,omitempty"`
	AuthSegments     []string `yaml:"authSegments,omitempty" json:"authSegments,omitempty"`
	RedirectTarget   string   `yaml:"redirectTarget,omitempty" json:"redirectTarget,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures the operational listener serving metrics and
// probes.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Platform:    DefaultPlatform,
		Server: ServerConfig{
			Port:              DefaultPort,
			ReadHeaderTimeout: Duration(10 * time.Second),
			ReadTimeout:       Duration(30 * time.Second),
			WriteTimeout:      Duration(30 * time.Second),
			IdleTimeout:       Duration(120 * time.Second),
			ShutdownTimeout:   Duration(30 * time.Second),
		},
		Store: StoreConfig{
			URI:            DefaultStoreURI,
			ConnectTimeout: Duration(10 * time.Second),
		},
		CORS: CORSConfig{
			Origin: DefaultCORSOrigin,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Requests:        DefaultRateLimitMax,
			Window:          Duration(DefaultRateLimitWindow),
			CleanupInterval: Duration(time.Minute),
		},
		Body: BodyConfig{
			MaxBytes: DefaultMaxBodyBytes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: DefaultMetricsAddress,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			ServiceName:  DefaultServiceName,
			SamplingRate: 1.0,
		},
	}
}

// IsProduction reports whether the gateway runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Address returns the listen address of the public listener.
func (c *Config) Address() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
