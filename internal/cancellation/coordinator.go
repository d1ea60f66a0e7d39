// ============================================================================
// Threadspark Cancellation Coordinator
// ============================================================================
//
// Package: internal/cancellation
// File: coordinator.go
// Purpose: Merge the internal "first failure" signal with external signals
//          into one effective skip decision
//
// Effective cancellation:
//   (cancelOnFirstError AND tripped) OR ctx done OR any Signal requested
//
//   The decision is consulted once per request, after dequeue and before the
//   body runs. Bodies already past that check run to completion and report
//   their real outcome. Cancellation never interrupts in-flight work.
//
// ============================================================================

package cancellation

import (
	"context"
	"sync/atomic"

	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Signal is an externally owned, read-only cancellation handle.
type Signal interface {
	IsRequested() bool
}

// Flag is a settable Signal safe for concurrent use.
type Flag struct {
	set atomic.Bool
}

// Request marks the flag as set. Further calls are no-ops.
func (f *Flag) Request() { f.set.Store(true) }

// IsRequested reports whether Request has been called.
func (f *Flag) IsRequested() bool { return f.set.Load() }

// Coordinator holds the cancellation state of a single run.
type Coordinator struct {
	ctx                context.Context
	signals            []Signal
	cancelOnFirstError bool
	tripped            atomic.Bool
}

// NewCoordinator creates a coordinator for one run. Nil signals are ignored.
func NewCoordinator(ctx context.Context, cancelOnFirstError bool, signals ...Signal) *Coordinator {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Coordinator{ctx: ctx, cancelOnFirstError: cancelOnFirstError}
	for _, s := range signals {
		if s != nil {
			c.signals = append(c.signals, s)
		}
	}
	return c
}

// ObserveFailure records a real failure. It returns true only for the call
// that tripped the internal signal, so the caller can log it once.
func (c *Coordinator) ObserveFailure() bool {
	if !c.cancelOnFirstError {
		return false
	}
	return c.tripped.CompareAndSwap(false, true)
}

// Tripped reports whether the internal signal is set.
func (c *Coordinator) Tripped() bool {
	return c.tripped.Load()
}

// Cancelled reports the effective cancellation decision.
func (c *Coordinator) Cancelled() bool {
	return c.Cause() != nil
}

// Cause returns why the run is cancelled, or nil. The internal signal wins
// over external ones so that a first-failure skip is reported as such.
func (c *Coordinator) Cause() error {
	if c.cancelOnFirstError && c.tripped.Load() {
		return types.ErrFirstFailure
	}
	if c.ctx.Err() != nil {
		return context.Cause(c.ctx)
	}
	for _, s := range c.signals {
		if s.IsRequested() {
			return types.ErrCancelRequested
		}
	}
	return nil
}

// Context returns the run context. Workers use it to abandon a permit wait.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}
