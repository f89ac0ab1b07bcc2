package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderOrigin is the Origin header name.
	HeaderOrigin = "Origin"

	// HeaderVary is the Vary header name.
	HeaderVary = "Vary"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderXPoweredBy is the X-Powered-By header name.
	HeaderXPoweredBy = "X-Powered-By"

	// HeaderRateLimitLimit carries the window capacity.
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining carries the requests left in the window.
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderRateLimitReset carries the Unix time at which the window ends.
	HeaderRateLimitReset = "X-RateLimit-Reset"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"

	// ContentTypeFormURLEncoded is the form URL encoded content type.
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// Client-facing failure messages.
const (
	// MessageTooManyRequests is the body message for rate-limited requests.
	MessageTooManyRequests = "Too many requests, please try again later."

	// MessageEntityTooLarge is the body message for oversized bodies.
	MessageEntityTooLarge = "Request entity too large"

	// MessageInvalidBody is the body message for undecodable bodies.
	MessageInvalidBody = "Invalid request body"

	// MessageDatabaseConnection is the body message for store connect failures.
	MessageDatabaseConnection = "Database connection error"
)

// Stage names, in chain order.
const (
	StageRequestID       = "request-id"
	StageLogging         = "logging"
	StageSecurityHeaders = "security-headers"
	StageCORS            = "cors"
	StageRateLimit       = "rate-limit"
	StageBodyParser      = "body-parser"
	StageConnection      = "connection"
)
