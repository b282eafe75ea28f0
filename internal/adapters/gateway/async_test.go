package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSerialExecutor_RunsCallbacksOneAtATime(t *testing.T) {
	executor := NewSerialExecutor(16)

	var (
		running int32
		overlap int32
		order   []int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		executor.Execute(func() {
			defer wg.Done()
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(time.Millisecond)
			order = append(order, i)
			atomic.AddInt32(&running, -1)
		})
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlap))
	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, executor.Close(ctx))
}

func TestSerialExecutor_ExecuteAfterClose(t *testing.T) {
	executor := NewSerialExecutor(1)
	require.NoError(t, executor.Close(context.Background()))

	ran := false
	executor.Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestAsyncPool_BoundsConcurrency(t *testing.T) {
	executor := NewSerialExecutor(16)
	pool := NewAsyncPool(2, executor, zap.NewNop())

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		pool.Go(context.Background(), func(ctx context.Context) (string, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return "ok", nil
		}, func(body string, err error) {
			defer wg.Done()
			assert.Equal(t, "ok", body)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Close(ctx))
	require.NoError(t, executor.Close(ctx))
}

func TestAsyncPool_RejectsWorkAfterClose(t *testing.T) {
	executor := NewSerialExecutor(1)
	pool := NewAsyncPool(1, executor, zap.NewNop())
	require.NoError(t, pool.Close(context.Background()))

	done := make(chan error, 1)
	pool.Go(context.Background(), func(ctx context.Context) (string, error) {
		t.Error("work must not run after close")
		return "", nil
	}, func(_ string, err error) {
		done <- err
	})

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrPoolClosed))
	case <-time.After(time.Second):
		t.Fatal("callback was not delivered")
	}
	require.NoError(t, executor.Close(context.Background()))
}

func TestAsyncPool_CanceledContextStillCallsBack(t *testing.T) {
	executor := NewSerialExecutor(1)
	pool := NewAsyncPool(1, executor, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	pool.Go(ctx, func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	}, func(_ string, err error) {
		done <- err
	})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("callback was not delivered")
	}
}
