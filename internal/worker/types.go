package worker

import (
	"log/slog"

	"github.com/ChuLiYu/threadspark/internal/cancellation"
	"github.com/ChuLiYu/threadspark/internal/progress"
	"github.com/ChuLiYu/threadspark/pkg/metrics"
)

// Config wires the collaborators of one run into a Pool
type Config[T any] struct {
	MaxConcurrency int                       // Limiter permits
	Coordinator    *cancellation.Coordinator // Effective cancellation for this run
	Reporter       *progress.Reporter[T]     // Completion counter and callback
	Recorder       metrics.Recorder          // Metrics sink (nil means metrics.Nop)
	Logger         *slog.Logger              // Logger (nil means slog.Default)
}
