// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors. Each one names a kind of failure; concrete errors wrap
// them so callers can branch with errors.Is.
var (
	// ErrInvalidArgument indicates a missing required handle or an out-of-range value
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAllocation indicates a buffer could not be grown or allocated
	ErrAllocation = errors.New("allocation failed")

	// ErrUnderflow indicates a pop from an empty queue. It is an expected
	// "nothing available right now" signal, not a defect.
	ErrUnderflow = errors.New("queue underflow")

	// ErrOverflow indicates a push into a full fixed-capacity queue or an
	// out-of-range worker index
	ErrOverflow = errors.New("queue overflow")

	// ErrOSPrimitive indicates a failing operating system call
	ErrOSPrimitive = errors.New("os primitive failed")

	// ErrWrongState indicates the target worker is not in the state the operation requires
	ErrWrongState = errors.New("wrong worker state")

	// ErrWorkerStopped indicates the worker stopped before it could observe an operation
	ErrWorkerStopped = errors.New("worker is stopped")

	// ErrMonitorAborted indicates a wait was released by the monitor's error flag
	ErrMonitorAborted = errors.New("monitor aborted")

	// ErrPoolRunning indicates the pool has already been started
	ErrPoolRunning = errors.New("pool is already running")

	// ErrPoolStopped indicates the pool is stopped or destroyed
	ErrPoolStopped = errors.New("pool is stopped")
)

// PoolError represents an error raised inside the pool with the operation
// that produced it and optional context
type PoolError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PoolError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("pool error in operation %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("pool error in operation %s: %v (context: %v)", e.Operation, e.Cause, e.Context)
}

// Unwrap returns the underlying error
func (e *PoolError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *PoolError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewPoolError creates a new pool error
func NewPoolError(operation string, cause error) *PoolError {
	return &PoolError{
		Operation: operation,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *PoolError) WithContext(key string, value interface{}) *PoolError {
	e.Context[key] = value
	return e
}

// Errorf wraps kind with a formatted message so that errors.Is(err, kind) holds
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// IsUnderflow reports whether err signals an empty queue
func IsUnderflow(err error) bool {
	return errors.Is(err, ErrUnderflow)
}

// ErrorHandler defines an error handling function. It receives errors the
// pool cannot return to a caller, such as recovered task panics.
type ErrorHandler func(error) error
