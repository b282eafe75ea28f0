package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"go.uber.org/zap"
)

// InFlightTracker tracks in-flight work (async gateway calls, callbacks) so
// Close can wait for it
type InFlightTracker struct {
	mu         sync.RWMutex
	wg         sync.WaitGroup
	shutdownCh chan struct{}
	closed     bool
	logger     *zap.Logger
	name       string
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		shutdownCh: make(chan struct{}),
		logger:     logger,
		name:       name,
	}
}

// Add increments the in-flight work counter
// Returns false if shutdown has been initiated (don't start new work)
func (ift *InFlightTracker) Add() bool {
	ift.mu.RLock()
	defer ift.mu.RUnlock()
	if ift.closed {
		return false
	}
	ift.wg.Add(1)
	return true
}

// Done decrements the in-flight work counter
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// Shutdown rejects new work and waits for in-flight work to complete
// Returns the context error if it expires first
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.mu.Lock()
	if !ift.closed {
		ift.closed = true
		close(ift.shutdownCh)
	}
	ift.mu.Unlock()

	ift.logger.Debug("Waiting for in-flight work to complete",
		zap.String("tracker", ift.name),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Debug("All in-flight work completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// BackgroundWorker manages a background goroutine with graceful shutdown
type BackgroundWorker struct {
	name     string
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewBackgroundWorker creates a new background worker
func NewBackgroundWorker(name string, logger *zap.Logger) *BackgroundWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &BackgroundWorker{
		name:   name,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the background worker
// The work function should respect ctx.Done() for cancellation
func (bw *BackgroundWorker) Start(work func(ctx context.Context)) {
	bw.wg.Add(1)

	go func() {
		defer bw.wg.Done()

		bw.logger.Debug("Background worker started",
			zap.String("worker", bw.name),
		)

		work(bw.ctx)

		bw.logger.Debug("Background worker stopped",
			zap.String("worker", bw.name),
		)
	}()
}

// Shutdown cancels the worker and waits for it to return, bounded by ctx
func (bw *BackgroundWorker) Shutdown(ctx context.Context) error {
	bw.stopOnce.Do(bw.cancel)

	done := make(chan struct{})
	go func() {
		bw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bw.logger.Warn("Background worker shutdown timeout",
			zap.String("worker", bw.name),
		)
		return ctx.Err()
	}
}

// Context returns the worker's context
func (bw *BackgroundWorker) Context() context.Context {
	return bw.ctx
}

// PeriodicWorker runs a function on an interval. When the function fails, the
// next run is pushed out by the backoff strategy until a run succeeds again.
type PeriodicWorker struct {
	*BackgroundWorker
	interval time.Duration
	backoff  resilience.BackoffStrategy
}

// NewPeriodicWorker creates a new periodic worker; backoff may be nil
func NewPeriodicWorker(name string, interval time.Duration, backoff resilience.BackoffStrategy, logger *zap.Logger) *PeriodicWorker {
	return &PeriodicWorker{
		BackgroundWorker: NewBackgroundWorker(name, logger),
		interval:         interval,
		backoff:          backoff,
	}
}

// Start begins the periodic worker. The first run happens after one interval.
func (pw *PeriodicWorker) Start(work func(ctx context.Context) error) {
	pw.BackgroundWorker.Start(func(ctx context.Context) {
		timer := time.NewTimer(pw.interval)
		defer timer.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			next := pw.interval
			if err := work(ctx); err != nil {
				if pw.backoff != nil {
					next += pw.backoff.NextDelay(failures)
				}
				failures++
				pw.logger.Warn("Periodic work failed",
					zap.String("worker", pw.name),
					zap.Int("consecutive_failures", failures),
					zap.Duration("next_run_in", next),
					zap.Error(err),
				)
			} else {
				failures = 0
			}
			timer.Reset(next)
		}
	})
}
