// ============================================================================
// Threadspark Worker Pool - Bounded Batch Executor
// ============================================================================
//
// Package: internal/worker
// File: worker_pool.go
// Function: Run one batch of N requests with at most K bodies executing
//
// Design:
//   ┌─────────────┐
//   │   Runner    │ --Execute(requests)--> Queue (N, closed)
//   └─────────────┘
//         ↑
//      Slots (N, sealed after barrier)
//         ↑
//   ┌──────────────────────┐
//   │   Pool               │
//   │  ┌────────┐          │
//   │  │Worker 0│──┐       │
//   │  │Worker 1│──┼─ Limiter (K permits)
//   │  │  ...   │──┤       │
//   │  │Worker N│──┘       │
//   │  └────────┘          │
//   └──────────────────────┘
//
// Lifecycle (one Pool per run):
//   1. NewPool(cfg)       - build queue-less pool with its limiter
//   2. Execute(requests)  - load queue, launch N workers, wait on the barrier
//   3. Slots returned     - every slot written exactly once
//
// Concurrency control:
//   - Queue: buffered channel, closed after loading, never blocks dequeue
//   - Limiter: weighted semaphore with K permits
//   - errgroup.Group: barrier over all N workers
//   - Mutex: guards the started flag so a pool runs once
//
// ============================================================================

package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChuLiYu/threadspark/internal/aggregate"
	"github.com/ChuLiYu/threadspark/pkg/metrics"
	"github.com/ChuLiYu/threadspark/pkg/types"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPoolAlreadyStarted indicates Execute was called twice on one pool
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
	// ErrInvalidRequests indicates requests are not densely indexed 0..N-1
	ErrInvalidRequests = errors.New("requests must be indexed 0..N-1 in order")
)

// Pool runs a single batch of requests
type Pool[T any] struct {
	cfg     Config[T]
	limiter *Limiter
	queue   *Queue[T]
	slots   *aggregate.Slots[T]
	started bool
	mu      sync.Mutex
}

// NewPool creates a pool. cfg.MaxConcurrency must already be validated and
// cfg.Coordinator and cfg.Reporter must be set.
func NewPool[T any](cfg Config[T]) *Pool[T] {
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pool[T]{
		cfg:     cfg,
		limiter: NewLimiter(cfg.MaxConcurrency),
	}
}

// Execute runs every request and blocks until all of them reached a final
// state. The returned slots are sealed and safe to read without locking.
func (p *Pool[T]) Execute(requests []types.FunctionRequest[T]) (*aggregate.Slots[T], error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil, ErrPoolAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	for i, r := range requests {
		if r.Index != i {
			return nil, fmt.Errorf("%w: position %d has index %d", ErrInvalidRequests, i, r.Index)
		}
	}

	n := len(requests)
	p.slots = aggregate.NewSlots[T](n)
	p.queue = NewQueue[T](n)
	if err := p.queue.EnqueueAll(requests); err != nil {
		return nil, fmt.Errorf("failed to load work queue: %w", err)
	}

	p.cfg.Recorder.RecordSubmitted(n)
	p.cfg.Recorder.AddPending(n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		w := newWorker(i, p)
		g.Go(func() error {
			w.Run()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; outcomes live in the slots

	if missing := p.slots.Seal(); missing > 0 {
		p.cfg.Logger.Error("result slots left unwritten",
			slog.Int("missing", missing),
			slog.Int("total", n))
		p.cfg.Recorder.AddPending(-missing)
	}
	return p.slots, nil
}

// MaxConcurrency returns the number of limiter permits
func (p *Pool[T]) MaxConcurrency() int {
	return p.limiter.Permits()
}

// IsStarted reports whether Execute has been called
func (p *Pool[T]) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
