package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	ctx, span := tracer.StartSpan(context.Background(), "op")
	span.End()
	assert.NotNil(t, ctx)
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_EnabledWithoutExporter(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{ServiceName: "test", Enabled: true, SamplingRate: 1})
	require.NoError(t, err)

	ctx, span := tracer.StartSpan(context.Background(), "op")
	ctx = ContextWithSpanIDs(ctx, span)
	span.End()

	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.NotEmpty(t, SpanIDFromContext(ctx))
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestTracer_NilSafe(t *testing.T) {
	t.Parallel()

	var tracer *Tracer
	_, span := tracer.StartSpan(context.Background(), "op")
	span.End()
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	assert.Equal(t, sdktrace.AlwaysSample().Description(), createSampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), createSampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), createSampler(0.5).Description())
}
