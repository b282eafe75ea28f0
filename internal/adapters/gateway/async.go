package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/kevin07696/payment-sdk/pkg/shutdown"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is delivered to callbacks submitted after Close
var ErrPoolClosed = errors.New("async pool is closed")

// DefaultPoolSize is the number of gateway calls that may run concurrently
const DefaultPoolSize = 4

// CallbackExecutor runs completion callbacks in a host-chosen context
type CallbackExecutor interface {
	Execute(fn func())
}

// SerialExecutor runs callbacks one at a time, in submission order, on a single goroutine
type SerialExecutor struct {
	tasks chan func()
	done  chan struct{}

	mu       sync.RWMutex
	closed   bool
	inlineMu sync.Mutex
}

// NewSerialExecutor starts the executor goroutine
func NewSerialExecutor(buffer int) *SerialExecutor {
	e := &SerialExecutor{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for fn := range e.tasks {
		fn()
	}
}

// Execute queues fn. After Close, fn runs on the calling goroutine, still
// serialized against other late callbacks.
func (e *SerialExecutor) Execute(fn func()) {
	e.mu.RLock()
	if !e.closed {
		e.tasks <- fn
		e.mu.RUnlock()
		return
	}
	e.mu.RUnlock()

	e.inlineMu.Lock()
	defer e.inlineMu.Unlock()
	fn()
}

// Close stops accepting queued callbacks and waits for the queue to drain
func (e *SerialExecutor) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.tasks)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncPool runs gateway calls on a bounded number of goroutines and
// delivers every result through the executor
type AsyncPool struct {
	sem      *semaphore.Weighted
	executor CallbackExecutor
	tracker  *shutdown.InFlightTracker
	logger   *zap.Logger
}

// NewAsyncPool creates a pool allowing size concurrent calls
func NewAsyncPool(size int64, executor CallbackExecutor, logger *zap.Logger) *AsyncPool {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &AsyncPool{
		sem:      semaphore.NewWeighted(size),
		executor: executor,
		tracker:  shutdown.NewInFlightTracker("gateway-async", logger),
		logger:   logger,
	}
}

// Go runs work and hands its result to cb. cb is always called exactly once.
func (p *AsyncPool) Go(ctx context.Context, work func(ctx context.Context) (string, error), cb func(string, error)) {
	if !p.tracker.Add() {
		p.executor.Execute(func() { cb("", ErrPoolClosed) })
		return
	}

	go func() {
		var (
			body string
			err  error
		)
		if err = p.sem.Acquire(ctx, 1); err == nil {
			body, err = work(ctx)
			p.sem.Release(1)
		} else {
			p.logger.Debug("Async gateway call abandoned before start", zap.Error(err))
		}

		p.executor.Execute(func() {
			defer p.tracker.Done()
			cb(body, err)
		})
	}()
}

// Close rejects new work and waits for running calls and their callbacks
func (p *AsyncPool) Close(ctx context.Context) error {
	return p.tracker.Shutdown(ctx)
}
