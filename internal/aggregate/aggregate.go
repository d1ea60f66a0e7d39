// Package aggregate turns the per-slot results of a finished run into the
// values returned to callers. It must only be called after the run barrier.
package aggregate

import (
	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Slots is the pre-sized result array of one run. Each slot has exactly one
// writer; written[i] records whether slot i was filled.
type Slots[T any] struct {
	results []types.FunctionResult[T]
	written []bool
}

// NewSlots allocates n empty slots.
func NewSlots[T any](n int) *Slots[T] {
	return &Slots[T]{
		results: make([]types.FunctionResult[T], n),
		written: make([]bool, n),
	}
}

// Put stores the result for its index. Safe only under single-writer discipline.
func (s *Slots[T]) Put(r types.FunctionResult[T]) {
	s.results[r.Index] = r
	s.written[r.Index] = true
}

// Len returns the number of slots.
func (s *Slots[T]) Len() int { return len(s.results) }

// Seal fills every slot that was never written with an InternalInvariantError
// and returns how many were missing.
func (s *Slots[T]) Seal() int {
	missing := 0
	for i, ok := range s.written {
		if ok {
			continue
		}
		missing++
		s.results[i] = types.FunctionResult[T]{
			Index:   i,
			Outcome: types.Failure[T](&types.InternalInvariantError{Index: i, Reason: types.ErrQueueUnderflow}),
		}
		s.written[i] = true
	}
	return missing
}

// All returns every outcome in index order. The length is always Len().
func All[T any](s *Slots[T]) []types.Outcome[T] {
	out := make([]types.Outcome[T], len(s.results))
	for i, r := range s.results {
		out[i] = r.Outcome
	}
	return out
}

// UntilError collapses the run to the failure with the lowest index, or to a
// success holding every value in index order. Completion order is ignored.
func UntilError[T any](s *Slots[T]) types.Outcome[[]T] {
	if i, err := FirstFailure(s); i >= 0 {
		return types.Failure[[]T](err)
	}
	values := make([]T, len(s.results))
	for i, r := range s.results {
		v, _ := r.Outcome.Unwrap()
		values[i] = v
	}
	return types.Success(values)
}

// FirstFailure returns the lowest failing index and its error, or -1.
func FirstFailure[T any](s *Slots[T]) (int, error) {
	for i, r := range s.results {
		if r.Outcome.IsFailure() {
			return i, r.Outcome.Err()
		}
	}
	return -1, nil
}

// Counts tallies successes, body failures and cancellations.
func Counts[T any](s *Slots[T]) (succeeded, failed, cancelled int) {
	for _, r := range s.results {
		switch {
		case r.Outcome.IsSuccess():
			succeeded++
		case types.IsCancelled(r.Outcome.Err()):
			cancelled++
		default:
			failed++
		}
	}
	return succeeded, failed, cancelled
}
