// Package middleware provides the pipeline stages that run between the
// error boundary and the router.
//
// Every stage is a pipeline.Stage. A stage either calls next exactly
// once or returns a pipeline.AbortError; none writes a terminal response
// itself. The application chain is, in order:
//
//   - RequestID: request identifier on the context and response
//   - Logging: access log line per request
//   - SecurityHeaders: fixed hardening response headers
//   - CORS: origin policy and preflight handling
//   - RateLimit: per-client fixed window admission
//   - BodyParser: bounded JSON and form body decoding
//   - Connection: backing-store handle on the request context
//
// ClientIPExtractor resolves the client address used as the rate limit
// key and in access logs, trusting X-Forwarded-For only from configured
// proxies.
package middleware
