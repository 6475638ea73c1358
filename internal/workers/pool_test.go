package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	pool := NewPool(4)

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		for {
			err := pool.Submit(func(ctx context.Context) error {
				ran.Add(1)
				return nil
			})
			if err == nil {
				break
			}
			assert.ErrorIs(t, err, ErrPoolSaturated)
			time.Sleep(time.Millisecond)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, pool.Wait(ctx))
	assert.Equal(t, int64(10), ran.Load())
	assert.Equal(t, int64(0), pool.Outstanding())
}

func TestPool_SaturationRejectsWithoutBlocking(t *testing.T) {
	pool := NewPool(2)
	release := make(chan struct{})

	for i := 0; i < 2; i++ {
		err := pool.Submit(func(ctx context.Context) error {
			<-release
			return nil
		})
		assert.NoError(t, err)
	}

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolSaturated)
	assert.Equal(t, int64(2), pool.Outstanding())

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, pool.Wait(ctx))
	assert.Equal(t, int64(0), pool.Outstanding())
}

func TestPool_TaskErrorDoesNotAffectSiblings(t *testing.T) {
	pool := NewPool(2)

	var ran atomic.Int64
	assert.NoError(t, pool.Submit(func(ctx context.Context) error {
		return errors.New("boom")
	}))
	assert.NoError(t, pool.Submit(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, pool.Wait(ctx))
	assert.Equal(t, int64(1), ran.Load())
}

func TestPool_WaitHonorsContext(t *testing.T) {
	pool := NewPool(1)
	release := make(chan struct{})

	assert.NoError(t, pool.Submit(func(ctx context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.NoError(t, pool.Wait(context.Background()))
}

func TestPool_SubmitAfterWaitIsRejected(t *testing.T) {
	pool := NewPool(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, pool.Wait(ctx))

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_TaskReceivesPoolContext(t *testing.T) {
	pool := NewPool(1)

	taskCtx := make(chan context.Context, 1)
	assert.NoError(t, pool.Submit(func(ctx context.Context) error {
		taskCtx <- ctx
		return nil
	}))

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, pool.Wait(waitCtx))

	got := <-taskCtx
	assert.NoError(t, got.Err())
}
