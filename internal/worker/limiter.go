package worker

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter is a counting semaphore bounding how many bodies execute at once.
// It gives no FIFO fairness guarantee among waiters.
type Limiter struct {
	sem     *semaphore.Weighted
	permits int
}

// NewLimiter creates a limiter with the given number of permits.
func NewLimiter(permits int) *Limiter {
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(permits)),
		permits: permits,
	}
}

// Acquire blocks until a permit is free or ctx is done.
// On error no permit is held and Release must not be called.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a permit.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// Permits returns the configured limit.
func (l *Limiter) Permits() int {
	return l.permits
}
