// Package runner executes batches of independent functions with bounded
// concurrency and returns their outcomes in submission order.
//
// A Runner fixes the concurrency limit K. Each call submits N functions;
// exactly N goroutines are scheduled and at most K of them execute a function
// body at any instant. Results always come back in index order, regardless of
// completion order.
//
// Two result shapes are offered:
//
//   - Run / BeginRun return one Outcome per function. A failing function
//     never fails the batch.
//   - RunUntilError / BeginRunUntilError collapse the batch into a single
//     Outcome: all values, or the failure with the lowest index.
//
// Cancellation is cooperative. With RunConfig.CancelOnFirstError, or when the
// context is done, or when RunConfig.Cancel reports a request, functions that
// have not started yet are skipped with a CancellationError. Functions already
// running are never interrupted.
//
//	r, err := runner.New(4)
//	if err != nil {
//		return err
//	}
//	outcomes := runner.Run(ctx, r, fns, runner.RunConfig[int]{})
//	for i, o := range outcomes {
//		if v, err := o.Unwrap(); err == nil {
//			fmt.Println(i, v)
//		}
//	}
package runner
