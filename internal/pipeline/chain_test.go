package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStage appends its name to trace and continues.
func recordingStage(name string, trace *[]string) Stage {
	return Stage{
		Name: name,
		Handle: func(w http.ResponseWriter, r *http.Request, next Next) error {
			*trace = append(*trace, name)
			return next(w, r)
		},
	}
}

func terminal(trace *[]string) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		*trace = append(*trace, "handler")
		w.WriteHeader(http.StatusOK)
		return nil
	})
}

func TestChain_RunsStagesInOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	chain := NewChain(
		recordingStage("first", &trace),
		recordingStage("second", &trace),
		recordingStage("third", &trace),
	)

	assert.Equal(t, []string{"first", "second", "third"}, chain.Names())

	rec := httptest.NewRecorder()
	err := chain.Then(terminal(&trace)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third", "handler"}, trace)
}

func TestChain_AbortStopsDownstream(t *testing.T) {
	t.Parallel()

	var trace []string
	chain := NewChain(
		recordingStage("first", &trace),
		Stage{
			Name: "reject",
			Handle: func(w http.ResponseWriter, r *http.Request, next Next) error {
				trace = append(trace, "reject")
				return Abort(http.StatusTooManyRequests, "slow down")
			},
		},
		recordingStage("never", &trace),
	)

	err := chain.Then(terminal(&trace)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, http.StatusTooManyRequests, abort.Status)
	assert.Equal(t, []string{"first", "reject"}, trace)
}

func TestChain_ContinuationUsableOnce(t *testing.T) {
	t.Parallel()

	var trace []string
	chain := NewChain(Stage{
		Name: "greedy",
		Handle: func(w http.ResponseWriter, r *http.Request, next Next) error {
			if err := next(w, r); err != nil {
				return err
			}
			return next(w, r)
		},
	})

	err := chain.Then(terminal(&trace)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.ErrorIs(t, err, ErrContinuationReused)
	assert.Contains(t, err.Error(), `"greedy"`)
	assert.Equal(t, []string{"handler"}, trace)
}

func TestChain_ErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var trace []string
	chain := NewChain(recordingStage("first", &trace))

	err := chain.Then(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return boom
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.ErrorIs(t, err, boom)
}

func TestChain_Empty(t *testing.T) {
	t.Parallel()

	var trace []string
	h := NewChain().Then(terminal(&trace))

	require.NoError(t, h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, []string{"handler"}, trace)
}

func TestAdapt(t *testing.T) {
	t.Parallel()

	h := Adapt(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	require.NoError(t, h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAbortError(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := Abort(http.StatusInternalServerError, "Database connection error").
		WithCause(cause).
		WithHeader("Retry-After", "1")

	assert.Equal(t, "aborted with 500: Database connection error: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "1", err.Header.Get("Retry-After"))
	assert.Equal(t, "aborted with 404: Route not found", Abort(http.StatusNotFound, "Route not found").Error())
}
