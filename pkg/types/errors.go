package types

// ============================================================================
// Error Definitions
// Purpose: Error taxonomy of the executor
// ============================================================================

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidConcurrency indicates maxConcurrency was zero or negative
	ErrInvalidConcurrency = errors.New("threadspark: max concurrency must be positive")

	// ErrCancelled is matched by every CancellationError
	ErrCancelled = errors.New("threadspark: cancelled before execution")

	// ErrFirstFailure is the cancellation cause when an earlier item failed
	ErrFirstFailure = errors.New("threadspark: cancelled after first failure")

	// ErrCancelRequested is the cancellation cause when an external signal fired
	ErrCancelRequested = errors.New("threadspark: cancellation requested")

	// ErrInvalidState indicates an outcome was unwrapped as the wrong variant
	ErrInvalidState = errors.New("threadspark: invalid outcome state")

	// ErrQueueUnderflow indicates a worker found no request to run
	ErrQueueUnderflow = errors.New("threadspark: work queue underflow")
)

// ConfigurationError is returned synchronously when a Runner is built with
// invalid settings. No work is scheduled.
type ConfigurationError struct {
	Field string // Offending setting
	Value any    // Rejected value
	Err   error  // Underlying sentinel
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("threadspark: invalid configuration %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps an error returned (or a panic raised) by a function body.
type ExecutionError struct {
	Index int   // Request index
	Err   error // Error produced by the body
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("threadspark: function %d failed: %v", e.Index, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic value and the stack at the panic site.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// CancellationError is the synthetic outcome of a request that was skipped
// because effective cancellation was active before its body ran.
type CancellationError struct {
	Index int   // Request index
	Cause error // Why the run was cancelled
}

func (e *CancellationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("threadspark: function %d skipped: cancelled", e.Index)
	}
	return fmt.Sprintf("threadspark: function %d skipped: %v", e.Index, e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// Is makes every CancellationError match ErrCancelled.
func (e *CancellationError) Is(target error) bool {
	return target == ErrCancelled
}

// InternalInvariantError reports a broken executor invariant for one slot.
// It should never surface from a correct build.
type InternalInvariantError struct {
	Index  int
	Reason error
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("threadspark: internal invariant violated at slot %d: %v", e.Index, e.Reason)
}

func (e *InternalInvariantError) Unwrap() error {
	return e.Reason
}

// InvalidStateError is returned when an Outcome is unwrapped as the wrong variant.
type InvalidStateError struct {
	Op     string
	Reason string
	Cause  error // Failure detail, when unwrapping a failure as a value
}

func (e *InvalidStateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("threadspark: %s: %s: %v", e.Op, e.Reason, e.Cause)
	}
	return fmt.Sprintf("threadspark: %s: %s", e.Op, e.Reason)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func (e *InvalidStateError) Unwrap() error {
	return e.Cause
}

// IsCancelled reports whether err is (or wraps) a CancellationError.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
