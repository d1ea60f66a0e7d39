package types

import "fmt"

// Outcome is the success-value-or-error result of running one request.
// The zero value is not a valid outcome; build one with Success or Failure.
type Outcome[T any] struct {
	value T
	err   error
	ok    bool
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Failure wraps an error. A nil error is replaced by an InvalidStateError so
// that a failure always carries detail.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = &InvalidStateError{Op: "Failure", Reason: "nil error"}
	}
	return Outcome[T]{err: err}
}

// FromResult converts the usual (value, error) pair into an Outcome.
func FromResult[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether the outcome holds a value.
func (o Outcome[T]) IsSuccess() bool { return o.ok }

// IsFailure reports whether the outcome holds an error.
func (o Outcome[T]) IsFailure() bool { return !o.ok }

// Unwrap returns the value and error in Go's conventional form.
func (o Outcome[T]) Unwrap() (T, error) {
	return o.value, o.err
}

// UnwrapValue returns the success value, or an InvalidStateError when the
// outcome is a failure.
func (o Outcome[T]) UnwrapValue() (T, error) {
	if !o.ok {
		var zero T
		return zero, &InvalidStateError{Op: "UnwrapValue", Reason: "outcome is a failure", Cause: o.err}
	}
	return o.value, nil
}

// UnwrapError returns the failure detail, or an InvalidStateError when the
// outcome is a success.
func (o Outcome[T]) UnwrapError() (error, error) {
	if o.ok {
		return nil, &InvalidStateError{Op: "UnwrapError", Reason: "outcome is a success"}
	}
	return o.err, nil
}

// MustValue is UnwrapValue for callers that treat a failure as a bug.
func (o Outcome[T]) MustValue() T {
	v, err := o.UnwrapValue()
	if err != nil {
		panic(err)
	}
	return v
}

// MustError is UnwrapError for callers that treat a success as a bug.
func (o Outcome[T]) MustError() error {
	e, err := o.UnwrapError()
	if err != nil {
		panic(err)
	}
	return e
}

// Err returns the failure detail or nil.
func (o Outcome[T]) Err() error { return o.err }

func (o Outcome[T]) String() string {
	if o.ok {
		return fmt.Sprintf("Success(%v)", o.value)
	}
	return fmt.Sprintf("Failure(%v)", o.err)
}
