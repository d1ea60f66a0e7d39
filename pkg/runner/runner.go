package runner

import (
	"log/slog"

	"github.com/ChuLiYu/threadspark/internal/cancellation"
	"github.com/ChuLiYu/threadspark/internal/progress"
	"github.com/ChuLiYu/threadspark/pkg/metrics"
	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Func is a unit of work submitted to a Runner.
type Func[T any] func() (T, error)

// Signal is an externally owned cancellation handle, polled before each
// function starts.
type Signal = cancellation.Signal

// Flag is a ready-made Signal that a caller can set from any goroutine.
type Flag = cancellation.Flag

// RunConfig holds the per-call settings. The zero value runs every function,
// reports no progress and has no external cancellation.
type RunConfig[T any] struct {
	// CancelOnFirstError skips functions that have not started once any
	// function has failed.
	CancelOnFirstError bool

	// Cancel is polled before each function starts. It is merged with the
	// context passed to the run.
	Cancel Signal

	// Progress is called once per function after it reaches a final state.
	Progress func(types.ProgressItem[T])

	// SerializeProgress delivers progress callbacks one at a time with
	// strictly increasing CompletedCount.
	SerializeProgress bool
}

// Runner executes batches with a fixed concurrency limit. It holds no
// per-run state and may be shared by concurrent calls; each call gets its
// own limiter.
type Runner struct {
	maxConcurrency int
	log            *slog.Logger
	recorder       metrics.Recorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecorder sets the metrics recorder. Defaults to metrics.Nop.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New creates a Runner. It fails with a *types.ConfigurationError when
// maxConcurrency is not positive.
func New(maxConcurrency int, opts ...Option) (*Runner, error) {
	if maxConcurrency <= 0 {
		return nil, &types.ConfigurationError{
			Field: "maxConcurrency",
			Value: maxConcurrency,
			Err:   types.ErrInvalidConcurrency,
		}
	}

	r := &Runner{
		maxConcurrency: maxConcurrency,
		log:            slog.Default(),
		recorder:       metrics.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MaxConcurrency returns the concurrency limit.
func (r *Runner) MaxConcurrency() int {
	return r.maxConcurrency
}

// reporter builds the progress reporter for one run.
func (cfg RunConfig[T]) reporter(total int, log *slog.Logger) *progress.Reporter[T] {
	return progress.NewReporter(total, progress.Func[T](cfg.Progress), cfg.SerializeProgress, log)
}
