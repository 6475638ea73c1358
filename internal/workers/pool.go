package workers

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
)

var (
	// ErrPoolSaturated is returned by Submit when every worker slot is busy.
	ErrPoolSaturated = errors.New("worker pool saturated")
	// ErrPoolClosed is returned by Submit once draining has started.
	ErrPoolClosed = errors.New("worker pool closed")
)

// Pool runs deferred-processing tasks with a fixed concurrency bound. It
// replaces detached goroutine spawning: saturation is reported to the caller
// instead of queueing without limit, and shutdown can drain outstanding work.
//
// Tasks receive the pool's own lifecycle context, never the submitter's:
// a webhook response returns long before its deferred task runs, and accepted
// work is not cancelled.
type Pool struct {
	ctx         context.Context
	group       *errgroup.Group
	outstanding atomic.Int64
	closed      atomic.Bool
}

// NewPool creates a pool running at most maxWorkers tasks concurrently.
func NewPool(maxWorkers int) *Pool {
	group := new(errgroup.Group)
	group.SetLimit(maxWorkers)
	return &Pool{
		ctx:   context.Background(),
		group: group,
	}
}

// Submit starts the task on a free worker. It never blocks: when all workers
// are busy it returns ErrPoolSaturated and the task is not run. Task errors
// are logged, not propagated; they must not tear down sibling tasks.
func (p *Pool) Submit(task func(ctx context.Context) error) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.outstanding.Add(1)
	started := p.group.TryGo(func() error {
		defer p.outstanding.Add(-1)
		if err := task(p.ctx); err != nil {
			logger.Log.Errorw("fallback task failed", "error", err)
		}
		return nil
	})
	if !started {
		p.outstanding.Add(-1)
		return ErrPoolSaturated
	}
	return nil
}

// Outstanding reports the number of tasks currently running.
func (p *Pool) Outstanding() int64 {
	return p.outstanding.Load()
}

// Wait stops accepting new tasks and blocks until running tasks finish or ctx
// expires. Running tasks are not cancelled; on ctx expiry they keep running
// detached and Wait reports the ctx error.
func (p *Pool) Wait(ctx context.Context) error {
	p.closed.Store(true)

	done := make(chan struct{})
	go func() {
		p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
