package runner

import (
	"context"
	"fmt"

	"github.com/ChuLiYu/threadspark/pkg/types"
)

// Join2 runs two functions of different result types on r and returns both
// values, or the error of the lower-indexed failure.
func Join2[A, B any](ctx context.Context, r *Runner, fa Func[A], fb Func[B], cfg RunConfig[any]) (A, B, error) {
	var (
		a A
		b B
	)
	values, err := joinAll(ctx, r, cfg, erase(fa), erase(fb))
	if err != nil {
		return a, b, err
	}
	if a, err = cast[A](values, 0); err != nil {
		return a, b, err
	}
	b, err = cast[B](values, 1)
	return a, b, err
}

// Join3 is Join2 for three functions.
func Join3[A, B, C any](ctx context.Context, r *Runner, fa Func[A], fb Func[B], fc Func[C], cfg RunConfig[any]) (A, B, C, error) {
	var (
		a A
		b B
		c C
	)
	values, err := joinAll(ctx, r, cfg, erase(fa), erase(fb), erase(fc))
	if err != nil {
		return a, b, c, err
	}
	if a, err = cast[A](values, 0); err != nil {
		return a, b, c, err
	}
	if b, err = cast[B](values, 1); err != nil {
		return a, b, c, err
	}
	c, err = cast[C](values, 2)
	return a, b, c, err
}

func joinAll(ctx context.Context, r *Runner, cfg RunConfig[any], fns ...Func[any]) ([]any, error) {
	return RunUntilError(ctx, r, fns, cfg).Unwrap()
}

func erase[T any](fn Func[T]) Func[any] {
	if fn == nil {
		return nil
	}
	return func() (any, error) {
		return fn()
	}
}

func cast[T any](values []any, i int) (T, error) {
	if values[i] == nil {
		var zero T
		return zero, nil
	}
	v, ok := values[i].(T)
	if !ok {
		var zero T
		return zero, &types.InvalidStateError{
			Op:     "Join",
			Reason: fmt.Sprintf("value %d has type %T", i, values[i]),
		}
	}
	return v, nil
}
