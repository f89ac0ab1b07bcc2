package pipeline

import (
	"fmt"
	"net/http"
)

// AbortError is the single way a stage ends a request early. The
// Boundary writes Status, Header and (if non-empty) a JSON body built
// from Message. Cause is logged, and shown to clients only outside
// production.
type AbortError struct {
	Status  int
	Message string
	Header  http.Header
	Cause   error
}

// Abort creates an AbortError with the given status and client-facing message.
func Abort(status int, message string) *AbortError {
	return &AbortError{Status: status, Message: message}
}

// WithCause attaches the underlying error.
func (e *AbortError) WithCause(err error) *AbortError {
	e.Cause = err
	return e
}

// WithHeader sets a response header to be written with the abort response.
func (e *AbortError) WithHeader(key, value string) *AbortError {
	if e.Header == nil {
		e.Header = make(http.Header)
	}
	e.Header.Set(key, value)
	return e
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("aborted with %d: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("aborted with %d: %s", e.Status, e.Message)
}

// Unwrap returns the underlying error.
func (e *AbortError) Unwrap() error {
	return e.Cause
}
