package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// PanicError wraps a value recovered from a panicking stage or handler.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// BoundaryOption is a functional option for configuring the Boundary.
type BoundaryOption func(*boundary)

// WithLogger sets the logger used for failures.
func WithLogger(logger observability.Logger) BoundaryOption {
	return func(b *boundary) {
		b.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *observability.Metrics) BoundaryOption {
	return func(b *boundary) {
		b.metrics = metrics
	}
}

// WithTracer sets the tracer used for the per-request server span.
func WithTracer(tracer *observability.Tracer) BoundaryOption {
	return func(b *boundary) {
		b.tracer = tracer
	}
}

// WithProduction controls whether underlying error messages are hidden
// from clients.
func WithProduction(production bool) BoundaryOption {
	return func(b *boundary) {
		b.production = production
	}
}

// boundary is the terminal error-catching stage.
type boundary struct {
	next       Handler
	logger     observability.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	production bool
}

// Boundary wraps h so that no error or panic escapes it. Errors are
// logged and rendered as {"message", "error"?} JSON bodies.
func Boundary(h Handler, opts ...BoundaryOption) http.Handler {
	b := &boundary{
		next:   h,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ServeHTTP implements http.Handler.
func (b *boundary) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := b.tracer.StartSpan(ctx, r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.String("user_agent.original", r.UserAgent()),
		),
	)
	defer span.End()

	ctx = observability.ContextWithSpanIDs(ctx, span)
	ctx = util.ContextWithStartTime(ctx, start)
	ctx = util.ContextWithRouteHolder(ctx)
	r = r.WithContext(ctx)

	sw := util.NewStatusCapturingResponseWriter(w)

	if err := b.serve(sw, r); err != nil {
		b.handleError(sw, r, err)
		span.RecordError(err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", sw.StatusCode))
	if sw.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(sw.StatusCode))
	}

	b.metrics.RecordRequest(r.Method, util.RouteFromContext(ctx), sw.StatusCode, time.Since(start))
}

// serve runs the wrapped handler, converting a panic into a PanicError.
func (b *boundary) serve(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			b.metrics.RecordPanic()
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return b.next.ServeHTTP(w, r)
}

// handleError logs err and renders the failure response if nothing has
// been written yet.
func (b *boundary) handleError(w *util.StatusCapturingResponseWriter, r *http.Request, err error) {
	logger := b.logger.WithContext(r.Context()).With(
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
	)

	var abort *AbortError
	if errors.As(err, &abort) {
		if abort.Status >= http.StatusInternalServerError {
			logger.Error("request aborted",
				observability.Int("status", abort.Status),
				observability.Error(err),
			)
		} else {
			logger.Debug("request aborted",
				observability.Int("status", abort.Status),
				observability.String("reason", abort.Message),
			)
		}
		if b.alreadyStarted(w, logger) {
			return
		}
		for key, values := range abort.Header {
			w.Header()[key] = values
		}
		if abort.Message == "" {
			w.WriteHeader(abort.Status)
			return
		}
		body := ErrorBody{Message: abort.Message}
		if !b.production && abort.Cause != nil {
			body.Error = abort.Cause.Error()
		}
		b.write(w, abort.Status, body, logger)
		return
	}

	fields := []observability.Field{observability.Error(err)}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		fields = append(fields, observability.String("stack", string(panicErr.Stack)))
	}
	logger.Error("unhandled error", fields...)

	if b.alreadyStarted(w, logger) {
		return
	}
	body := ErrorBody{Message: MessageInternalError}
	if !b.production {
		body.Error = err.Error()
	}
	b.write(w, http.StatusInternalServerError, body, logger)
}

// alreadyStarted reports whether the response is committed, in which
// case the failure can only be logged.
func (b *boundary) alreadyStarted(w *util.StatusCapturingResponseWriter, logger observability.Logger) bool {
	if !w.HeaderWritten {
		return false
	}
	logger.Warn("response already started, cannot render error",
		observability.Int("status", w.StatusCode),
	)
	return true
}

func (b *boundary) write(w http.ResponseWriter, status int, body ErrorBody, logger observability.Logger) {
	if err := WriteJSON(w, status, body); err != nil {
		logger.Debug("failed to write error response", observability.Error(err))
	}
}
