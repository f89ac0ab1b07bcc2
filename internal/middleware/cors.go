package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
)

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns the permissive policy used when no frontend
// origin is configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderXRequestID},
		ExposeHeaders:    []string{HeaderXRequestID, HeaderRateLimitLimit, HeaderRateLimitRemaining, HeaderRateLimitReset},
		AllowCredentials: true,
	}
}

// corsHeaders holds pre-computed CORS header values.
type corsHeaders struct {
	allowOrigins     map[string]bool
	wildcardPatterns []string
	allowAllOrigins  bool
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

// newCORSHeaders creates pre-computed CORS headers from config.
func newCORSHeaders(cfg CORSConfig) *corsHeaders {
	h := &corsHeaders{
		allowOrigins:     make(map[string]bool),
		allowMethods:     strings.Join(cfg.AllowMethods, ", "),
		allowHeaders:     strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders:    strings.Join(cfg.ExposeHeaders, ", "),
		allowCredentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		h.maxAge = strconv.Itoa(cfg.MaxAge)
	}

	for _, origin := range cfg.AllowOrigins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		switch {
		case origin == "*":
			h.allowAllOrigins = true
		case strings.HasPrefix(origin, "*."):
			h.wildcardPatterns = append(h.wildcardPatterns, origin)
		case origin != "":
			h.allowOrigins[origin] = true
		}
	}
	return h
}

// isOriginAllowed checks if the given origin is allowed.
func (h *corsHeaders) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if h.allowAllOrigins || h.allowOrigins[origin] {
		return true
	}
	for _, pattern := range h.wildcardPatterns {
		if matchWildcardOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// matchWildcardOrigin checks if an origin matches a wildcard pattern.
// Pattern format: "*.example.com" matches "sub.example.com", "api.example.com", etc.
func matchWildcardOrigin(origin, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	suffix := pattern[1:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
}

// setResponseHeaders sets the headers sent on every response.
func (h *corsHeaders) setResponseHeaders(w http.ResponseWriter, origin string) {
	header := w.Header()
	header.Add(HeaderVary, HeaderOrigin)
	if h.allowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}

	if !h.isOriginAllowed(origin) {
		return
	}
	// Browsers refuse "*" on credentialed requests, so the concrete
	// origin is echoed.
	header.Set("Access-Control-Allow-Origin", origin)
	if h.exposeHeaders != "" {
		header.Set("Access-Control-Expose-Headers", h.exposeHeaders)
	}
}

// setPreflightHeaders sets the headers that answer a preflight.
func (h *corsHeaders) setPreflightHeaders(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	if h.allowMethods != "" {
		header.Set("Access-Control-Allow-Methods", h.allowMethods)
	}

	allowHeaders := h.allowHeaders
	if allowHeaders == "" {
		allowHeaders = r.Header.Get("Access-Control-Request-Headers")
	}
	if allowHeaders != "" {
		header.Set("Access-Control-Allow-Headers", allowHeaders)
	}

	if h.maxAge != "" {
		header.Set("Access-Control-Max-Age", h.maxAge)
	}
}

// isPreflight reports whether r is a CORS preflight request.
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// CORS returns a stage that applies the origin policy. Preflight
// requests end the chain with 204 No Content.
func CORS(cfg CORSConfig) pipeline.Stage {
	headers := newCORSHeaders(cfg)

	return pipeline.Stage{
		Name: StageCORS,
		Handle: func(w http.ResponseWriter, r *http.Request, next pipeline.Next) error {
			headers.setResponseHeaders(w, r.Header.Get(HeaderOrigin))

			if isPreflight(r) {
				headers.setPreflightHeaders(w, r)
				return pipeline.Abort(http.StatusNoContent, "")
			}

			return next(w, r)
		},
	}
}

// CORSForOrigin returns the default policy restricted to origin. An
// empty origin or "*" keeps the permissive default.
func CORSForOrigin(origin string) CORSConfig {
	cfg := DefaultCORSConfig()
	if origin != "" && origin != "*" {
		cfg.AllowOrigins = strings.Split(origin, ",")
	}
	return cfg
}
