package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartTimeContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.True(t, StartTimeFromContext(ctx).IsZero())
	assert.Equal(t, time.Duration(0), ElapsedTime(ctx))

	start := time.Now().Add(-time.Second)
	ctx = ContextWithStartTime(ctx, start)
	assert.Equal(t, start, StartTimeFromContext(ctx))
	assert.GreaterOrEqual(t, ElapsedTime(ctx), time.Second)
}

func TestRouteContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, RouteFromContext(ctx))

	SetRoute(ctx, "/api/recipes")
	assert.Empty(t, RouteFromContext(ctx))

	ctx = ContextWithRouteHolder(ctx)
	assert.Empty(t, RouteFromContext(ctx))

	SetRoute(ctx, "/api/recipes")
	assert.Equal(t, "/api/recipes", RouteFromContext(ctx))
}
