package health

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
)

// Public health payload values.
const (
	StatusOK       = "OK"
	RunningMessage = "CookVerse API is running!"

	// DefaultPlatform labels the deployment environment.
	DefaultPlatform = "Vercel Serverless"

	// timestampLayout is RFC 3339 in UTC with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Response is the body of the public health endpoint.
type Response struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// HandlerOption is a functional option for configuring the health handler.
type HandlerOption func(*handler)

// WithClock replaces the time source.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *handler) {
		h.now = now
	}
}

type handler struct {
	platform string
	now      func() time.Time
}

// Handler returns the public health handler. platform is reported as
// the environment; empty means DefaultPlatform.
func Handler(platform string, opts ...HandlerOption) pipeline.Handler {
	if platform == "" {
		platform = DefaultPlatform
	}
	h := &handler{platform: platform, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements pipeline.Handler.
func (h *handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) error {
	return pipeline.WriteJSON(w, http.StatusOK, Response{
		Status:      StatusOK,
		Message:     RunningMessage,
		Timestamp:   h.now().UTC().Format(timestampLayout),
		Environment: h.platform,
	})
}
