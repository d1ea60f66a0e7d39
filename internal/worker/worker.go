// ============================================================================
// Threadspark Worker - Single Request Execution Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: One goroutine per submitted request; executes at most one body
//
// How it works:
//   1. Acquire a limiter permit (the only point where a worker may block)
//   2. Dequeue one request
//   3. Consult the cancellation coordinator
//   4. Execute the body, or skip it with a CancellationError
//   5. Write exactly one result slot
//   6. Report progress
//   7. Release the permit (deferred, on every path)
//
// Execution Model:
//   ┌─────────────────────────────────────┐
//   │  Worker Goroutine                   │
//   │  ┌──────────────────────────────┐   │
//   │  │ limiter.Acquire(ctx)         │   │
//   │  │   ├─ queue.TryDequeue()      │   │
//   │  │   ├─ coordinator.Cause()     │   │
//   │  │   ├─ invoke(body) / skip     │   │
//   │  │   ├─ slots.Put(result)       │   │
//   │  │   └─ reporter.Report(...)    │   │
//   │  └──────────────────────────────┘   │
//   └─────────────────────────────────────┘
//
// Error Handling:
//   - Body error: wrapped in ExecutionError, stored in the slot
//   - Body panic: recovered into ExecutionError{Err: *PanicError}
//   - Skipped body: CancellationError carrying the coordinator's cause
//   - Empty queue: logged; the slot is sealed as InternalInvariantError later
//   Nothing escapes the worker goroutine.
//
// ============================================================================

package worker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ChuLiYu/threadspark/internal/aggregate"
	"github.com/ChuLiYu/threadspark/internal/cancellation"
	"github.com/ChuLiYu/threadspark/internal/progress"
	"github.com/ChuLiYu/threadspark/pkg/metrics"
	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Worker represents one scheduled unit of work
type Worker[T any] struct {
	id       int // Worker ordinal, used for logging
	queue    *Queue[T]
	limiter  *Limiter
	coord    *cancellation.Coordinator
	reporter *progress.Reporter[T]
	slots    *aggregate.Slots[T]
	rec      metrics.Recorder
	log      *slog.Logger
}

// newWorker creates a new Worker instance
func newWorker[T any](id int, p *Pool[T]) *Worker[T] {
	return &Worker[T]{
		id:       id,
		queue:    p.queue,
		limiter:  p.limiter,
		coord:    p.cfg.Coordinator,
		reporter: p.cfg.Reporter,
		slots:    p.slots,
		rec:      p.cfg.Recorder,
		log:      p.cfg.Logger,
	}
}

// Run executes at most one request and records its outcome
func (w *Worker[T]) Run() {
	ctx := w.coord.Context()

	permitted := w.limiter.Acquire(ctx) == nil
	if permitted {
		defer w.limiter.Release()
	}

	req, ok := w.queue.TryDequeue()
	if !ok {
		w.log.Error("work queue underflow", slog.Int("worker", w.id))
		return
	}
	w.rec.AddPending(-1)

	outcome := w.process(ctx, req, permitted)

	w.slots.Put(types.FunctionResult[T]{Index: req.Index, Outcome: outcome})
	w.reporter.Report(req.Index, outcome)
}

// process decides between executing and skipping the request
func (w *Worker[T]) process(ctx context.Context, req types.FunctionRequest[T], permitted bool) types.Outcome[T] {
	cause := w.coord.Cause()
	if cause == nil && !permitted {
		// the permit wait was abandoned, so ctx is done
		cause = context.Cause(ctx)
	}
	if cause != nil {
		w.rec.RecordCancelled()
		w.log.Debug("skipping request",
			slog.Int("index", req.Index),
			slog.String("state", string(types.StateSkipped)),
			slog.Any("cause", cause))
		return types.Failure[T](&types.CancellationError{Index: req.Index, Cause: cause})
	}

	w.rec.RecordStarted()
	w.rec.AddInFlight(1)
	start := time.Now()

	value, err := invoke(req.Body)

	latency := time.Since(start)
	w.rec.AddInFlight(-1)

	if err != nil {
		w.rec.RecordFailed(latency)
		if w.coord.ObserveFailure() {
			w.log.Info("first failure observed, skipping remaining requests",
				slog.Int("index", req.Index),
				slog.Any("error", err))
		}
		return types.Failure[T](&types.ExecutionError{Index: req.Index, Err: err})
	}

	w.rec.RecordSucceeded(latency)
	return types.Success(value)
}

// invoke runs body and converts a panic into a PanicError
func invoke[T any](body func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &types.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return body()
}
