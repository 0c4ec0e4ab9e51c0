package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout bounds fn with a deadline derived from ctx. A non-positive
// budget disables the bound. fn keeps running in its own goroutine after
// the deadline fires; it is expected to observe ctx and bail out.
func WithTimeout(ctx context.Context, budget time.Duration, op string, fn func(ctx context.Context) error) error {
	if budget <= 0 {
		return fn(ctx)
	}

	bounded, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- fn(bounded) }()

	select {
	case err := <-errc:
		return err
	case <-bounded.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: cancelled: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: %w after %v", op, context.DeadlineExceeded, budget)
	}
}
