package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/cookverse-gateway/internal/config"
	"github.com/vyrodovalexey/cookverse-gateway/internal/features"
	"github.com/vyrodovalexey/cookverse-gateway/internal/middleware"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/store"
)

type testHandle struct {
	closed atomic.Bool
}

func (h *testHandle) Ping(context.Context) error { return nil }

func (h *testHandle) Close() error {
	h.closed.Store(true)
	return nil
}

// countingDialer fails the first failFor dials, then hands out handles.
type countingDialer struct {
	dials   atomic.Int64
	failFor int64
	delay   time.Duration
	last    atomic.Pointer[testHandle]
}

func (d *countingDialer) Dial(context.Context) (store.Handle, error) {
	n := d.dials.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if n <= d.failFor {
		return nil, errors.New("connection refused")
	}
	h := &testHandle{}
	d.last.Store(h)
	return h, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	cfg.Metrics.Address = "127.0.0.1:0"
	return cfg
}

func newTestGateway(t *testing.T, cfg *config.Config, dialer *countingDialer, opts ...Option) *Gateway {
	t.Helper()
	opts = append([]Option{WithDialer(dialer.Dial)}, opts...)
	gw, err := New(cfg, opts...)
	require.NoError(t, err)
	return gw
}

// localURL returns a loopback base URL for a bound listener address.
func localURL(t *testing.T, addr string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return "http://127.0.0.1:" + port
}

func do(h http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	cfg := testConfig()
	cfg.Store.URI = "http://not-redis"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create store dialer")
}

func TestHandler_EdgeRedirects(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{}
	h := newTestGateway(t, testConfig(), dialer).Handler()

	for _, path := range []string{"/_vercel/insights", "/login", "/api/auth/login", "/app/authentication/x"} {
		rec := do(h, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
		assert.Empty(t, rec.Header().Get("X-Frame-Options"), "chain must not run for %s", path)
	}

	assert.Zero(t, dialer.dials.Load())
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{}
	h := newTestGateway(t, testConfig(), dialer).Handler()

	rec := do(h, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "CookVerse API is running!", body["message"])
	assert.Equal(t, "Vercel Serverless", body["environment"])

	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)

	// Advisory, security, origin and rate-limit headers.
	assert.Equal(t, "true", rec.Header().Get("X-Middleware-Skip-Auth"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Empty(t, rec.Header().Get("X-Powered-By"))

	assert.Equal(t, int64(1), dialer.dials.Load())
}

func TestHandler_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestGateway(t, testConfig(), &countingDialer{}).Handler()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/unknown/path"},
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/api/healthcheck"},
	} {
		rec := do(h, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String(), tc.path)
	}
}

func TestHandler_Collaborators(t *testing.T) {
	t.Parallel()

	recipes := pipeline.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		h, ok := store.HandleFromContext(r.Context())
		if !ok || h == nil {
			return errors.New("no store handle")
		}
		var payload map[string]any
		if b, ok := middleware.BodyFromContext(r.Context()); ok {
			if err := b.Decode(&payload); err != nil {
				return err
			}
		}
		return pipeline.WriteJSON(w, http.StatusCreated, map[string]any{"path": r.URL.Path, "body": payload})
	})

	h := newTestGateway(t, testConfig(), &countingDialer{}, WithFeatures(features.Set{Recipes: recipes})).Handler()

	rec := do(h, http.MethodPost, "/api/recipes/new", strings.NewReader(`{"title":"Soup"}`),
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"path":"/new","body":{"title":"Soup"}}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/notifications", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandler_MalformedBody(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{}
	h := newTestGateway(t, testConfig(), dialer).Handler()

	rec := do(h, http.MethodPost, "/api/recipes", strings.NewReader(`{"title":`),
		map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, dialer.dials.Load(), "body errors end the chain before the connection stage")
}

func TestHandler_Preflight(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.CORS.Origin = "https://cookverse.app"
	dialer := &countingDialer{}
	h := newTestGateway(t, cfg, dialer).Handler()

	rec := do(h, http.MethodOptions, "/api/recipes", nil, map[string]string{
		"Origin":                        "https://cookverse.app",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://cookverse.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, dialer.dials.Load())
}

func TestHandler_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit.Requests = 3
	h := newTestGateway(t, cfg, &countingDialer{}).Handler()

	for i := 0; i < 3; i++ {
		rec := do(h, http.MethodGet, "/api/health", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := do(h, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"Too many requests, please try again later."}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestHandler_RateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	h := newTestGateway(t, cfg, &countingDialer{}).Handler()

	rec := do(h, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestHandler_StoreFailureSelfHeals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		environment string
		wantError   bool
	}{
		{name: "development", environment: config.EnvDevelopment, wantError: true},
		{name: "production", environment: config.EnvProduction, wantError: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Environment = tt.environment
			dialer := &countingDialer{failFor: 1}
			h := newTestGateway(t, cfg, dialer).Handler()

			rec := do(h, http.MethodGet, "/api/health", nil, nil)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Database connection error", body["message"])
			if tt.wantError {
				assert.Contains(t, body["error"], "connection refused")
			} else {
				assert.NotContains(t, body, "error")
			}

			rec = do(h, http.MethodGet, "/api/health", nil, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, int64(2), dialer.dials.Load())
		})
	}
}

func TestHandler_ConcurrentColdRequestsDialOnce(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{delay: 50 * time.Millisecond}
	h := newTestGateway(t, testConfig(), dialer).Handler()

	const n = 20
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = do(h, http.MethodGet, "/api/health", nil, map[string]string{
				"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			}).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
	assert.Equal(t, int64(1), dialer.dials.Load())
}

func TestOpsHandler(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, testConfig(), &countingDialer{})

	do(gw.Handler(), http.MethodGet, "/api/health", nil, nil)

	rec := do(gw.OpsHandler(), http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cookverse_requests_total")

	rec = do(gw.OpsHandler(), http.MethodGet, LivenessPath, nil, nil)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(gw.OpsHandler(), http.MethodGet, ReadinessPath, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestOpsHandler_ReadinessUnhealthy(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, testConfig(), &countingDialer{failFor: 100})

	rec := do(gw.OpsHandler(), http.MethodGet, ReadinessPath, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestGateway_Lifecycle(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{}
	gw := newTestGateway(t, testConfig(), dialer)
	assert.Equal(t, StateStopped, gw.State())
	assert.ErrorIs(t, gw.Stop(context.Background()), ErrGatewayNotRunning)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, gw.Start(ctx))
	assert.True(t, gw.IsRunning())
	assert.Equal(t, "running", gw.State().String())
	assert.ErrorIs(t, gw.Start(ctx), ErrGatewayNotStopped)

	resp, err := http.Get(localURL(t, gw.PublicAddr()) + "/api/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(localURL(t, gw.OpsAddr()) + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, gw.Stop(ctx))
	assert.Equal(t, StateClosed, gw.State())
	assert.False(t, gw.IsRunning())

	handle := dialer.last.Load()
	require.NotNil(t, handle)
	assert.True(t, handle.closed.Load(), "stop closes the backing-store handle")

	_, err = gw.Cache().Ensure(ctx)
	assert.ErrorIs(t, err, store.ErrCacheClosed)
}

func TestGateway_RestartAfterStopRefused(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, testConfig(), &countingDialer{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, gw.Start(ctx))
	require.NoError(t, gw.Stop(ctx))

	assert.ErrorIs(t, gw.Start(ctx), ErrGatewayClosed)
	assert.Equal(t, StateClosed, gw.State())
	assert.Empty(t, gw.PublicAddr())
	assert.ErrorIs(t, gw.Stop(ctx), ErrGatewayNotRunning)
}

func TestGateway_StartRetriesAfterBindFailure(t *testing.T) {
	t.Parallel()

	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Metrics.Address = occupied.Addr().String()
	cfg.RateLimit.CleanupInterval = config.Duration(10 * time.Millisecond)
	gw := newTestGateway(t, cfg, &countingDialer{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, gw.Start(ctx))
	assert.Equal(t, StateStopped, gw.State())
	assert.Empty(t, gw.PublicAddr(), "public listener released after the ops bind failed")

	require.NoError(t, occupied.Close())
	require.NoError(t, gw.Start(ctx))
	t.Cleanup(func() { _ = gw.Stop(context.Background()) })

	resp, err := http.Get(localURL(t, gw.PublicAddr()) + "/api/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGateway_WithRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Store.URI = "redis://" + mr.Addr() + "/0"

	gw, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Cache().Close() })

	rec := do(gw.Handler(), http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h, err := gw.Cache().Ensure(context.Background())
	require.NoError(t, err)
	redisHandle, ok := h.(*store.RedisHandle)
	require.True(t, ok)
	require.NoError(t, redisHandle.Client().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
