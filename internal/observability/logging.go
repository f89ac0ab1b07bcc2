package observability

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// Logger is the structured logger threaded through the gateway.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	// WithContext adds the request-scoped fields found on ctx: request ID,
	// client IP, matched route, and the trace and span IDs.
	WithContext(ctx context.Context) Logger
	Sync() error
}

// Field is a single structured log field.
type Field = zap.Field

var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Error    = zap.Error
	Duration = zap.Duration
)

// LogConfig selects the level, encoding and destination of NewLogger.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// DefaultLogConfig returns info-level JSON on stdout.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

type zapLogger struct {
	logger *zap.Logger
}

// NewLogger builds a zap-backed Logger. Format "console" selects the
// human-readable encoder; anything else is JSON. Output "stderr" writes to
// stderr; anything else to stdout.
func NewLogger(cfg LogConfig) (Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	out := zapcore.AddSync(os.Stdout)
	if cfg.Output == "stderr" {
		out = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(encoder, out, level)
	return NewZapLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))), nil
}

// NewZapLogger adapts an existing zap logger. A nil logger discards.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{logger: logger}
}

// NopLogger returns a logger that discards all output.
func NopLogger() Logger {
	return &zapLogger{logger: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }
func (l *zapLogger) Sync() error                       { return l.logger.Sync() }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) WithContext(ctx context.Context) Logger {
	fields := requestFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

type contextKey int

const (
	requestIDKey contextKey = iota
	clientIPKey
	traceIDKey
	spanIDKey
)

// requestFields collects the non-empty request-scoped values on ctx. The
// route is read from the holder the boundary installs, so a logger built
// after dispatch carries the matched prefix.
func requestFields(ctx context.Context) []Field {
	fields := make([]Field, 0, 5)
	for _, f := range []struct {
		name  string
		value string
	}{
		{"request_id", stringValue(ctx, requestIDKey)},
		{"client_ip", stringValue(ctx, clientIPKey)},
		{"route", util.RouteFromContext(ctx)},
		{"trace_id", stringValue(ctx, traceIDKey)},
		{"span_id", stringValue(ctx, spanIDKey)},
	} {
		if f.value != "" {
			fields = append(fields, String(f.name, f.value))
		}
	}
	return fields
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID returns a copy of ctx carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID on ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ContextWithClientIP returns a copy of ctx carrying the resolved client IP.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client IP on ctx, or "".
func ClientIPFromContext(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

// ContextWithTraceID returns a copy of ctx carrying the trace ID.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the trace ID on ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

// ContextWithSpanID returns a copy of ctx carrying the span ID.
func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

// SpanIDFromContext returns the span ID on ctx, or "".
func SpanIDFromContext(ctx context.Context) string {
	return stringValue(ctx, spanIDKey)
}
