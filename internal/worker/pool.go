// Package worker runs blocking security work off the caller's goroutine and
// hands back futures.
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultSize bounds concurrent tasks when NewPool receives a non-positive size.
const DefaultSize = 4

// Pool runs tasks on a bounded number of goroutines. Task failures are
// delivered through their Future and never cancel sibling tasks.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu     sync.Mutex
	closed bool
}

// NewPool creates a Pool. Tasks receive a context derived from ctx that is
// cancelled by Close.
func NewPool(ctx context.Context, size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	ctx, cancel := context.WithCancel(ctx)
	group := &errgroup.Group{}
	group.SetLimit(size)
	return &Pool{ctx: ctx, cancel: cancel, group: group}
}

// Close cancels running tasks and waits for them to return. Tasks submitted
// afterwards run on the caller's goroutine with a cancelled context.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	return p.group.Wait()
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finishes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Submit schedules fn on the pool. It blocks while the pool is at capacity.
// A nil pool runs fn on a fresh goroutine.
func Submit[T any](p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	future := &Future[T]{done: make(chan struct{})}

	if p == nil {
		go func() {
			future.resolve(fn(context.Background()))
		}()
		return future
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		future.resolve(fn(p.ctx))
		return future
	}

	p.group.Go(func() error {
		future.resolve(fn(p.ctx))
		return nil
	})
	return future
}
