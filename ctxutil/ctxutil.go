// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"fmt"
	"time"
)

// Sleep blocks the caller for given duration. Returns the context's cause if
// it is canceled before the duration elapses.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// RetryTimeout runs f every interval till it succeeds, the timeout expires
// or the context is canceled. Returns nil on success and the last error from
// f otherwise.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) error {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()

	err := f()
	for err != nil {
		if serr := Sleep(sctx, interval); serr != nil {
			return fmt.Errorf("%w (gave up: %v)", err, serr)
		}
		err = f()
	}
	return nil
}
