package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

func failing(err error) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return err
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBoundary_UnexpectedError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		production bool
		wantError  bool
	}{
		{name: "production hides cause", production: true, wantError: false},
		{name: "development exposes cause", production: false, wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := Boundary(failing(errors.New("recipe lookup failed")), WithProduction(tt.production))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/1", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

			body := decodeBody(t, rec)
			assert.Equal(t, MessageInternalError, body["message"])
			if tt.wantError {
				assert.Equal(t, "recipe lookup failed", body["error"])
			} else {
				assert.NotContains(t, body, "error")
			}
		})
	}
}

func TestBoundary_AbortRendering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{
			name:       "client error without cause",
			err:        Abort(http.StatusNotFound, "Route not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"Route not found"}`,
		},
		{
			name: "rate limit with headers",
			err: Abort(http.StatusTooManyRequests, "Too many requests, please try again later.").
				WithHeader("Retry-After", "900"),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"message":"Too many requests, please try again later."}`,
			wantHeader: map[string]string{"Retry-After": "900"},
		},
		{
			name:       "dependency error in development",
			err:        Abort(http.StatusInternalServerError, "Database connection error").WithCause(errors.New("refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Database connection error","error":"refused"}`,
		},
		{
			name:       "dependency error in production",
			err:        Abort(http.StatusInternalServerError, "Database connection error").WithCause(errors.New("refused")),
			production: true,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Database connection error"}`,
		},
		{
			name:       "wrapped abort",
			err:        errors.Join(errors.New("context"), Abort(http.StatusBadRequest, "Invalid request body")),
			production: true,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Invalid request body"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := Boundary(failing(tt.err), WithProduction(tt.production))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, rec.Header().Get(k))
			}
		})
	}
}

func TestBoundary_AbortWithoutMessage(t *testing.T) {
	t.Parallel()

	h := Boundary(failing(Abort(http.StatusNoContent, "").WithHeader("Access-Control-Allow-Methods", "GET")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestBoundary_RecoversPanic(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := observability.NewMetrics("boundary_panic")

	h := Boundary(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		panic("nil map")
	}), WithLogger(observability.NewZapLogger(zap.New(core))), WithMetrics(metrics))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "panic: nil map", body["error"])

	entries := logs.FilterMessage("unhandled error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "stack")
	assert.Equal(t, "/boom", entries[0].ContextMap()["path"])
}

func TestBoundary_ResponseAlreadyStarted(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	h := Boundary(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		return errors.New("late failure")
	}), WithLogger(observability.NewZapLogger(zap.New(core))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("response already started, cannot render error").Len())
}

func TestBoundary_Success(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("boundary_success")
	h := Boundary(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		assert.False(t, util.StartTimeFromContext(r.Context()).IsZero())
		util.SetRoute(r.Context(), "/api/recipes")
		return WriteJSON(w, http.StatusCreated, map[string]string{"id": "1"})
	}), WithMetrics(metrics))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recipes", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
	count, err := testutil.GatherAndCount(metrics.Registry(), "boundary_success_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBoundary_ContinuationReuseIsServerError(t *testing.T) {
	t.Parallel()

	chain := NewChain(Stage{
		Name: "double",
		Handle: func(w http.ResponseWriter, r *http.Request, next Next) error {
			_ = next(w, r)
			return next(w, r)
		},
	})
	calls := 0
	h := Boundary(chain.Then(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		calls++
		return nil
	})), WithProduction(true))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Something went wrong!"}`, rec.Body.String())
}
