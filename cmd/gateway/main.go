// Package main is the entry point for the CookVerse API gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/cookverse-gateway/internal/config"
	"github.com/vyrodovalexey/cookverse-gateway/internal/gateway"
	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	envFile     string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		exitFunc(1)
		return
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting cookverse gateway",
		observability.String("version", version),
		observability.String("environment", cfg.Environment),
		observability.String("config", flags.configPath),
	)

	tracer := initTracer(cfg, logger)

	gw, err := gateway.New(cfg,
		gateway.WithLogger(logger),
		gateway.WithTracer(tracer),
	)
	if err != nil {
		fatalWithSync(logger, "failed to create gateway", observability.Error(err))
		return
	}

	runGateway(gw, tracer, cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("gateway", flag.ExitOnError)

	configPath := fs.String("config", getEnvOrDefault("GATEWAY_CONFIG_PATH", ""),
		"Path to an optional YAML configuration file")
	envFile := fs.String("env-file", getEnvOrDefault("GATEWAY_ENV_FILE", ".env"),
		"Path to an optional .env file")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error); overrides configuration")
	logFormat := fs.String("log-format", "", "Log format (json, console); overrides configuration")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		envFile:     *envFile,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("cookverse-gateway version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	var opts []config.LoaderOption
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFiles(flags.envFile))
	}

	cfg, err := config.NewLoader(opts...).Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.logLevel == "" && flags.logFormat == "" {
		return cfg, nil
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger initializes the logger.
func initLogger(cfg *config.Config) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		exitFunc(1)
		return observability.NopLogger()
	}

	return logger
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config, logger observability.Logger) *observability.Tracer {
	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		fatalWithSync(logger, "failed to initialize tracer", observability.Error(err))
		return nil
	}
	return tracer
}

// fatalWithSync logs at error level, flushes the logger and exits.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
