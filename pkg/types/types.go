// Package types defines the core domain model shared by the threadspark executor
package types

// FunctionRequest is an index-tagged, not-yet-executed function body.
// Index is dense over 0..N-1 and follows submission order.
type FunctionRequest[T any] struct {
	Index int                // Position in the submitted batch
	Body  func() (T, error) // Caller-supplied work
}

// FunctionResult is the outcome of one request, tagged with its index.
// Exactly one worker writes each result slot.
type FunctionResult[T any] struct {
	Index   int        // Index of the originating request
	Outcome Outcome[T] // Final outcome (executed or skipped)
}

// ProgressItem is handed to a progress callback each time a request reaches
// a final outcome. It is not retained by the executor.
type ProgressItem[T any] struct {
	Index          int        // Index of the request that just finished
	Outcome        Outcome[T] // Its final outcome
	Total          int        // Batch size N
	CompletedCount int        // Unique value in [1, N]
}

// ItemState describes where a single request is in its lifecycle.
type ItemState string

const (
	StatePending   ItemState = "pending"   // Queued, not yet picked up
	StateRunning   ItemState = "running"   // Body currently executing
	StateCompleted ItemState = "completed" // Body returned (success or failure)
	StateSkipped   ItemState = "skipped"   // Body never ran because of cancellation
)
