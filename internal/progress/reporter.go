// Package progress assigns completion counts and delivers progress callbacks.
package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Func receives one ProgressItem per finished request.
type Func[T any] func(types.ProgressItem[T])

// Reporter hands out gapless completion counts in [1, total].
// Without serialization, callbacks from different workers may overlap and
// arrive out of count order; only the counts themselves are guaranteed.
type Reporter[T any] struct {
	total     int
	completed atomic.Int64
	callback  Func[T]
	serialize bool
	mu        sync.Mutex
	log       *slog.Logger
}

// NewReporter creates a reporter for a batch of total requests.
// A nil callback is replaced by a no-op.
func NewReporter[T any](total int, callback Func[T], serialize bool, log *slog.Logger) *Reporter[T] {
	if callback == nil {
		callback = func(types.ProgressItem[T]) {}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reporter[T]{
		total:     total,
		callback:  callback,
		serialize: serialize,
		log:       log,
	}
}

// Report records one final outcome and returns the count assigned to it.
func (r *Reporter[T]) Report(index int, outcome types.Outcome[T]) int {
	if r.serialize {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	count := int(r.completed.Add(1))
	r.deliver(types.ProgressItem[T]{
		Index:          index,
		Outcome:        outcome,
		Total:          r.total,
		CompletedCount: count,
	})
	return count
}

// Completed returns how many requests have been reported so far.
func (r *Reporter[T]) Completed() int {
	return int(r.completed.Load())
}

// deliver shields the worker from a panicking callback.
func (r *Reporter[T]) deliver(item types.ProgressItem[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("progress callback panicked",
				slog.Int("index", item.Index),
				slog.Int("completed", item.CompletedCount),
				slog.String("panic", fmt.Sprint(rec)))
		}
	}()
	r.callback(item)
}
