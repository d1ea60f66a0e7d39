package worker

import (
	"errors"
	"sync/atomic"

	"github.com/ChuLiYu/threadspark/pkg/types"
)

var (
	// ErrQueueLoaded indicates EnqueueAll was called more than once
	ErrQueueLoaded = errors.New("work queue already loaded")
	// ErrQueueOverflow indicates more requests than the queue was sized for
	ErrQueueOverflow = errors.New("work queue capacity exceeded")
)

// Queue holds the pending requests of one run.
// It is loaded once and then drained by concurrent TryDequeue calls.
type Queue[T any] struct {
	ch     chan types.FunctionRequest[T] // Buffered to the batch size, closed after loading
	loaded atomic.Bool
}

// NewQueue creates a queue able to hold capacity requests.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan types.FunctionRequest[T], capacity)}
}

// EnqueueAll loads every request in order and seals the queue.
// It must be called once, before any worker starts.
func (q *Queue[T]) EnqueueAll(requests []types.FunctionRequest[T]) error {
	if !q.loaded.CompareAndSwap(false, true) {
		return ErrQueueLoaded
	}
	if len(requests) > cap(q.ch) {
		close(q.ch)
		return ErrQueueOverflow
	}
	for _, r := range requests {
		q.ch <- r
	}
	close(q.ch)
	return nil
}

// TryDequeue returns the next request in FIFO order, or false when none is
// left. It never blocks.
func (q *Queue[T]) TryDequeue() (types.FunctionRequest[T], bool) {
	select {
	case r, ok := <-q.ch:
		return r, ok
	default:
		// not loaded yet
		var zero types.FunctionRequest[T]
		return zero, false
	}
}

// Len returns the number of requests still queued.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
