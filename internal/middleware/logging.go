package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// Logging returns a stage that writes one access log line per request
// once the rest of the chain has finished, including when it panics.
// Requests that end in an error are logged with the status the boundary
// is about to render; the boundary logs the detail. The resolved client
// IP is published on the context for the stages behind it.
func Logging(logger observability.Logger, ips *ClientIPExtractor) pipeline.Stage {
	if ips == nil {
		ips = NewClientIPExtractor(nil)
	}

	return pipeline.Stage{
		Name: StageLogging,
		Handle: func(w http.ResponseWriter, r *http.Request, next pipeline.Next) (err error) {
			start := util.StartTimeFromContext(r.Context())
			if start.IsZero() {
				start = time.Now()
			}
			if observability.ClientIPFromContext(r.Context()) == "" {
				r = r.WithContext(observability.ContextWithClientIP(r.Context(), ips.Extract(r)))
			}

			sw := util.NewStatusCapturingResponseWriter(w)
			returned := false
			defer func() {
				status := sw.StatusCode
				if !sw.HeaderWritten {
					switch {
					case !returned:
						status = http.StatusInternalServerError
					case err != nil:
						status = errorStatus(err)
					}
				}

				logger.WithContext(r.Context()).Info("http request",
					observability.String("method", r.Method),
					observability.String("path", r.URL.Path),
					observability.String("query", r.URL.RawQuery),
					observability.Int("status", status),
					observability.Int("size", sw.Size),
					observability.Duration("duration", time.Since(start)),
					observability.String("user_agent", r.UserAgent()),
				)
			}()

			err = next(sw, r)
			returned = true
			return err
		},
	}
}

// errorStatus returns the status the boundary renders for err.
func errorStatus(err error) int {
	var abort *pipeline.AbortError
	if errors.As(err, &abort) {
		return abort.Status
	}
	return http.StatusInternalServerError
}
