package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChuLiYu/threadspark/internal/aggregate"
	"github.com/ChuLiYu/threadspark/internal/cancellation"
	"github.com/ChuLiYu/threadspark/internal/worker"
	"github.com/ChuLiYu/threadspark/pkg/types"
	"github.com/google/uuid"
)

// Run executes fns and returns one outcome per function, in submission order.
// It blocks until every function has finished or been skipped. Individual
// failures never fail the batch; inspect each Outcome.
func Run[T any](ctx context.Context, r *Runner, fns []Func[T], cfg RunConfig[T]) []types.Outcome[T] {
	return aggregate.All(execute(ctx, r, fns, cfg))
}

// RunUntilError executes fns and returns either all values in submission
// order, or the failure with the lowest index. Which failure wins does not
// depend on completion order.
func RunUntilError[T any](ctx context.Context, r *Runner, fns []Func[T], cfg RunConfig[T]) types.Outcome[[]T] {
	return aggregate.UntilError(execute(ctx, r, fns, cfg))
}

// BeginRun is the non-blocking form of Run.
func BeginRun[T any](ctx context.Context, r *Runner, fns []Func[T], cfg RunConfig[T]) *Handle[[]types.Outcome[T]] {
	return begin(func() []types.Outcome[T] {
		return Run(ctx, r, fns, cfg)
	})
}

// BeginRunUntilError is the non-blocking form of RunUntilError.
func BeginRunUntilError[T any](ctx context.Context, r *Runner, fns []Func[T], cfg RunConfig[T]) *Handle[types.Outcome[[]T]] {
	return begin(func() types.Outcome[[]T] {
		return RunUntilError(ctx, r, fns, cfg)
	})
}

// execute moves one run through Dispatching, AwaitingCompletion and hands
// the sealed slots to the caller for aggregation.
func execute[T any](ctx context.Context, r *Runner, fns []Func[T], cfg RunConfig[T]) *aggregate.Slots[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	n := len(fns)
	log := r.log.With(slog.String("run_id", uuid.NewString()))

	requests := make([]types.FunctionRequest[T], n)
	for i, fn := range fns {
		requests[i] = types.FunctionRequest[T]{Index: i, Body: fn}
	}

	coord := cancellation.NewCoordinator(ctx, cfg.CancelOnFirstError, cfg.Cancel)
	pool := worker.NewPool(worker.Config[T]{
		MaxConcurrency: r.maxConcurrency,
		Coordinator:    coord,
		Reporter:       cfg.reporter(n, log),
		Recorder:       r.recorder,
		Logger:         log,
	})

	log.Debug("run dispatching",
		slog.Int("functions", n),
		slog.Int("max_concurrency", r.maxConcurrency),
		slog.Bool("cancel_on_first_error", cfg.CancelOnFirstError))

	slots, err := pool.Execute(requests)
	if err != nil {
		// requests are built above with dense indexes on a fresh pool
		log.Error("run could not be dispatched", slog.Any("error", err))
		slots = aggregate.NewSlots[T](n)
		slots.Seal()
	}

	elapsed := time.Since(start)
	r.recorder.SetBatchDuration(elapsed)

	succeeded, failed, cancelled := aggregate.Counts(slots)
	log.Debug("run completed",
		slog.Int("functions", n),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Int("cancelled", cancelled),
		slog.Duration("elapsed", elapsed))

	return slots
}
