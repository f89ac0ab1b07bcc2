package middleware

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/store"
)

// HandleEnsurer hands out the process-wide backing-store handle.
type HandleEnsurer interface {
	Ensure(ctx context.Context) (store.Handle, error)
}

// Connection returns a stage that makes sure the backing store is
// connected before the request reaches a handler. The handle is placed
// on the request context; a failure ends the request with 500.
func Connection(cache HandleEnsurer) pipeline.Stage {
	return pipeline.Stage{
		Name: StageConnection,
		Handle: func(w http.ResponseWriter, r *http.Request, next pipeline.Next) error {
			h, err := cache.Ensure(r.Context())
			if err != nil {
				return pipeline.Abort(http.StatusInternalServerError, MessageDatabaseConnection).WithCause(err)
			}
			return next(w, r.WithContext(store.ContextWithHandle(r.Context(), h)))
		},
	}
}
