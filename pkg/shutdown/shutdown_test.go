package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ShutdownOrderIsLIFO(t *testing.T) {
	m := NewManager(zap.NewNop())

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	m.Register("analytics-store", record("analytics-store"))
	m.Register("async-pool", record("async-pool"))
	m.Register("analytics-queue", record("analytics-queue"))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"analytics-queue", "async-pool", "analytics-store"}, order)

	// second call is a no-op
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestManager_ContinuesAfterFailure(t *testing.T) {
	m := NewManager(zap.NewNop())

	closed := false
	m.RegisterCloser("store", closerFunc(func() error { closed = true; return nil }))
	m.Register("queue", func(ctx context.Context) error { return errors.New("flush failed") })

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue: flush failed")
	assert.True(t, closed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestInFlightTracker_RejectsWorkAfterShutdown(t *testing.T) {
	tracker := NewInFlightTracker("async", zap.NewNop())

	require.True(t, tracker.Add())
	released := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		tracker.Done()
		close(released)
	}()

	require.NoError(t, tracker.Shutdown(context.Background()))
	<-released

	assert.True(t, tracker.IsShuttingDown())
	assert.False(t, tracker.Add())
}

func TestInFlightTracker_ShutdownTimeout(t *testing.T) {
	tracker := NewInFlightTracker("async", zap.NewNop())
	require.True(t, tracker.Add())
	defer tracker.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, tracker.Shutdown(ctx), context.DeadlineExceeded)
}

func TestPeriodicWorker_RunsOnInterval(t *testing.T) {
	worker := NewPeriodicWorker("flush", 5*time.Millisecond, nil, zap.NewNop())

	var runs atomic.Int32
	worker.Start(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, worker.Shutdown(context.Background()))
}

func TestPeriodicWorker_BacksOffAfterFailure(t *testing.T) {
	backoff := &resilience.ExponentialBackoff{
		BaseDelay:  time.Hour,
		MaxDelay:   time.Hour,
		Multiplier: 2.0,
	}
	worker := NewPeriodicWorker("flush", 5*time.Millisecond, backoff, zap.NewNop())

	var runs atomic.Int32
	worker.Start(func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("gateway unavailable")
	})

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "backoff should delay the next run")

	require.NoError(t, worker.Shutdown(context.Background()))
}
