package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
)

// maxRequestIDLength caps an inbound X-Request-ID before it is trusted.
const maxRequestIDLength = 128

// RequestID returns a stage that assigns each request an identifier,
// reusing a well-formed inbound X-Request-ID.
func RequestID() pipeline.Stage {
	return RequestIDWithGenerator(func() string {
		return uuid.New().String()
	})
}

// RequestIDWithGenerator returns a RequestID stage with a custom generator.
func RequestIDWithGenerator(generator func() string) pipeline.Stage {
	return pipeline.Stage{
		Name: StageRequestID,
		Handle: func(w http.ResponseWriter, r *http.Request, next pipeline.Next) error {
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = generator()
			}

			ctx := observability.ContextWithRequestID(r.Context(), requestID)
			w.Header().Set(HeaderXRequestID, requestID)

			return next(w, r.WithContext(ctx))
		},
	}
}
