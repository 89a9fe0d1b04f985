// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"os"
	"sync"
)

// CloseGroup runs goroutines with a shared context that is canceled with
// os.ErrClosed cause when the group is closed. Zero value is ready to use.
type CloseGroup struct {
	once sync.Once

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (cg *CloseGroup) init() {
	cg.ctx, cg.cancel = context.WithCancelCause(context.Background())
}

// Close cancels the group context and waits for all goroutines to return.
func (cg *CloseGroup) Close() {
	cg.once.Do(cg.init)

	cg.mu.Lock()
	cg.closed = true
	cg.mu.Unlock()

	cg.cancel(os.ErrClosed)
	cg.wg.Wait()
}

// Go runs f in a new goroutine. Returns false without running f if the
// group is already closed.
func (cg *CloseGroup) Go(f func(ctx context.Context)) bool {
	cg.once.Do(cg.init)

	cg.mu.Lock()
	defer cg.mu.Unlock()

	if cg.closed {
		return false
	}
	cg.wg.Add(1)
	go func() {
		defer cg.wg.Done()
		f(cg.ctx)
	}()
	return true
}
