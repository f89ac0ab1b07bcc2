package store

import (
	"errors"
	"fmt"

	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// ErrCacheClosed is returned by Ensure after Close.
var ErrCacheClosed = errors.New("connection cache closed")

// ErrNilHandle is the cause recorded when a dialer reports success
// without a handle.
var ErrNilHandle = errors.New("dialer returned no handle")

// ConnectError reports a failed connection attempt. It is retryable:
// the cache has already been cleared when the caller sees it.
type ConnectError struct {
	Backend string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Backend, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConnectError) Is(target error) bool {
	if target == util.ErrBackendUnavail {
		return true
	}
	_, ok := target.(*ConnectError)
	return ok
}

// IsRetryable reports whether err came from a connection attempt that a
// later Ensure may retry.
func IsRetryable(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
