package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
)

// okHandler writes 200 and counts its calls.
type okHandler struct {
	calls int
	req   *http.Request
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	h.calls++
	h.req = r
	w.WriteHeader(http.StatusOK)
	return nil
}

// serve runs stages in front of h behind a boundary and returns the
// recorded response.
func serve(r *http.Request, h pipeline.Handler, stages ...pipeline.Stage) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	pipeline.Boundary(pipeline.NewChain(stages...).Then(h)).ServeHTTP(rec, r)
	return rec
}
