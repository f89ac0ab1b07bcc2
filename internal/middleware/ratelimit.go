package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/ratelimit"
)

// RateLimitOption is a functional option for configuring the rate limit stage.
type RateLimitOption func(*rateLimitStage)

// WithRateLimitLogger sets the logger for the rate limit stage.
func WithRateLimitLogger(logger observability.Logger) RateLimitOption {
	return func(s *rateLimitStage) {
		s.logger = logger
	}
}

// WithRateLimitMetrics sets the metrics recorder for the rate limit stage.
func WithRateLimitMetrics(metrics *observability.Metrics) RateLimitOption {
	return func(s *rateLimitStage) {
		s.metrics = metrics
	}
}

// WithRateLimitClock replaces the time source used for X-RateLimit-Reset.
func WithRateLimitClock(now func() time.Time) RateLimitOption {
	return func(s *rateLimitStage) {
		s.now = now
	}
}

type rateLimitStage struct {
	limiter ratelimit.Limiter
	ips     *ClientIPExtractor
	logger  observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// RateLimit returns a stage that admits requests through limiter, keyed
// by client IP. Rejected requests end with 429.
func RateLimit(limiter ratelimit.Limiter, ips *ClientIPExtractor, opts ...RateLimitOption) pipeline.Stage {
	s := &rateLimitStage{
		limiter: limiter,
		ips:     ips,
		logger:  observability.NopLogger(),
		now:     time.Now,
	}
	if s.ips == nil {
		s.ips = NewClientIPExtractor(nil)
	}
	for _, opt := range opts {
		opt(s)
	}

	return pipeline.Stage{Name: StageRateLimit, Handle: s.handle}
}

func (s *rateLimitStage) handle(w http.ResponseWriter, r *http.Request, next pipeline.Next) error {
	clientIP := observability.ClientIPFromContext(r.Context())
	if clientIP == "" {
		clientIP = s.ips.Extract(r)
		r = r.WithContext(observability.ContextWithClientIP(r.Context(), clientIP))
	}

	result, err := s.limiter.Allow(r.Context(), clientIP)
	if err != nil {
		s.logger.WithContext(r.Context()).Warn("rate limiter unavailable, admitting request",
			observability.Error(err),
		)
		return next(w, r)
	}

	s.metrics.RecordRateLimit(result.Allowed)

	if result.Limit > 0 {
		header := w.Header()
		header.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
		header.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
		header.Set(HeaderRateLimitReset, strconv.FormatInt(s.now().Add(result.ResetAfter).Unix(), 10))
	}

	if !result.Allowed {
		s.logger.WithContext(r.Context()).Warn("rate limit exceeded",
			observability.String("path", r.URL.Path),
		)
		return pipeline.Abort(http.StatusTooManyRequests, MessageTooManyRequests).
			WithHeader(HeaderRetryAfter, retryAfterSeconds(result.RetryAfter))
	}

	return next(w, r)
}

// retryAfterSeconds renders d as whole seconds, rounded up, at least 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
