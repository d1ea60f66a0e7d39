package runner

import "context"

// Handle is the pending result of a non-blocking run. It exposes no way to
// cancel the run itself; use the run's context or RunConfig.Cancel.
type Handle[T any] struct {
	done   chan struct{}
	result T
}

func begin[T any](fn func() T) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.result = fn()
	}()
	return h
}

// Done returns a channel closed once the result is available. It composes
// with select and other channels.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the run finishes and returns its result.
func (h *Handle[T]) Result() T {
	<-h.done
	return h.result
}

// IsCompleted reports whether the result is available without blocking.
func (h *Handle[T]) IsCompleted() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the run finishes or ctx is done. A done ctx only stops
// the wait; the run keeps going and Result still returns it later.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
