// Package util provides utility functions and types shared by the
// request pipeline.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithStartTime(ctx, time.Now())
//	elapsed := util.ElapsedTime(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - ConfigError: a single invalid configuration input
//   - Common sentinel errors: ErrBackendUnavail, ErrConfigInvalid, etc.
//
// # HTTP Utilities
//
// Response writer wrappers for status code capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode
package util
