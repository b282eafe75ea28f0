package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"github.com/kevin07696/payment-sdk/pkg/shutdown"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Flush after Close
var ErrQueueClosed = errors.New("analytics queue is closed")

// QueueConfig contains configuration for the analytics queue
type QueueConfig struct {
	// BatchSize pending events trigger an upload
	BatchSize int
	// FlushInterval is how often pending events are retried regardless of count
	FlushInterval time.Duration
	// BufferSize is the number of events held in memory before persisting
	BufferSize int

	Timeouts *resilience.TimeoutConfig
	Backoff  resilience.BackoffStrategy
}

// DefaultQueueConfig returns default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		BatchSize:     5,
		FlushInterval: 30 * time.Second,
		BufferSize:    256,
		Timeouts:      resilience.DefaultTimeoutConfig(),
		Backoff:       resilience.AnalyticsBackoff(),
	}
}

// queue implements the AnalyticsQueue port.
// A single worker goroutine owns the store, so appends and uploads never interleave.
type queue struct {
	store         adapterports.AnalyticsStore
	uploader      *Uploader
	configuration ports.ConfigurationService
	config        *QueueConfig
	logger        *zap.Logger

	events   chan domain.AnalyticsEvent
	flushes  chan chan error
	worker   *shutdown.BackgroundWorker
	periodic *shutdown.PeriodicWorker
	closed   atomic.Bool

	// Owned by the worker goroutine
	failures int
	retryAt  time.Time
	now      func() time.Time
}

// NewQueue creates the queue and starts its worker goroutines
func NewQueue(
	store adapterports.AnalyticsStore,
	uploader *Uploader,
	configuration ports.ConfigurationService,
	cfg *QueueConfig,
	logger *zap.Logger,
) ports.AnalyticsQueue {
	q := &queue{
		store:         store,
		uploader:      uploader,
		configuration: configuration,
		config:        cfg,
		logger:        logger,
		events:        make(chan domain.AnalyticsEvent, cfg.BufferSize),
		flushes:       make(chan chan error),
		worker:        shutdown.NewBackgroundWorker("analytics-queue", logger),
		periodic:      shutdown.NewPeriodicWorker("analytics-flush", cfg.FlushInterval, cfg.Backoff, logger),
		now:           time.Now,
	}

	q.worker.Start(q.run)
	q.periodic.Start(q.requestFlush)
	return q
}

// Enqueue never blocks. Events are dropped when the buffer is full or the queue is closed.
func (q *queue) Enqueue(event domain.AnalyticsEvent) {
	if q.closed.Load() {
		observability.RecordAnalyticsDropped()
		return
	}

	select {
	case q.events <- event:
		observability.RecordAnalyticsEnqueued()
	default:
		observability.RecordAnalyticsDropped()
		q.logger.Warn("Analytics buffer full, dropping event",
			zap.String("event", event.Name),
		)
	}
}

// Flush uploads every pending event, including ones still buffered
func (q *queue) Flush(ctx context.Context) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	return q.requestFlush(ctx)
}

// Close makes a final flush attempt and stops the workers.
// Events that fail to upload stay persisted for the next process.
func (q *queue) Close(ctx context.Context) error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := q.requestFlush(ctx); err != nil {
		q.logger.Warn("Final analytics flush failed", zap.Error(err))
	}
	if err := q.periodic.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("analytics flush worker: %w", err))
	}
	if err := q.worker.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("analytics queue worker: %w", err))
	}
	return errors.Join(errs...)
}

func (q *queue) requestFlush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case q.flushes <- reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.worker.Context().Done():
		return ErrQueueClosed
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.persistBuffered()
			return

		case event := <-q.events:
			q.persist(ctx, event)
			q.maybeAutoFlush(ctx)

		case reply := <-q.flushes:
			q.drainBuffered(ctx)
			reply <- q.flush(ctx)
		}
	}
}

func (q *queue) persist(ctx context.Context, event domain.AnalyticsEvent) {
	if _, err := q.store.Append(ctx, event); err != nil {
		observability.RecordAnalyticsDropped()
		q.logger.Error("Failed to persist analytics event",
			zap.String("event", event.Name),
			zap.Error(err),
		)
	}
}

func (q *queue) drainBuffered(ctx context.Context) {
	for {
		select {
		case event := <-q.events:
			q.persist(ctx, event)
		default:
			return
		}
	}
}

// persistBuffered saves whatever is still in memory once the worker context is gone
func (q *queue) persistBuffered() {
	ctx, cancel := q.config.Timeouts.ShutdownContext(context.Background())
	defer cancel()
	q.drainBuffered(ctx)
}

func (q *queue) maybeAutoFlush(ctx context.Context) {
	count, err := q.store.Count(ctx)
	if err != nil {
		q.logger.Warn("Failed to count pending analytics events", zap.Error(err))
		return
	}
	observability.SetAnalyticsPending(count)

	if count < int64(q.config.BatchSize) || q.now().Before(q.retryAt) {
		return
	}
	if err := q.flush(ctx); err != nil {
		q.logger.Warn("Analytics upload failed, will retry",
			zap.Int("consecutive_failures", q.failures),
			zap.Time("retry_at", q.retryAt),
			zap.Error(err),
		)
	}
}

// flush uploads each metadata group independently; a group's rows are
// deleted only after its own upload succeeds
func (q *queue) flush(ctx context.Context) error {
	ctx, cancel := q.config.Timeouts.AnalyticsFlushContext(ctx)
	defer cancel()

	batches, err := q.store.DrainGroupedByMetadata(ctx)
	if err != nil {
		return q.recordResult(err)
	}
	if len(batches) == 0 {
		return q.recordResult(nil)
	}

	cfg, err := q.configuration.Fetch(ctx)
	if err != nil {
		return q.recordResult(fmt.Errorf("failed to fetch configuration for analytics: %w", err))
	}

	if !cfg.IsAnalyticsEnabled() {
		q.logger.Debug("Analytics disabled for merchant, discarding pending events")
		for _, batch := range batches {
			if err := q.store.DeleteByIDs(ctx, batch.IDs()); err != nil {
				return q.recordResult(err)
			}
			observability.RecordAnalyticsBatch("discarded")
		}
		q.updatePending(ctx)
		return q.recordResult(nil)
	}

	var errs []error
	for _, batch := range batches {
		if err := q.uploader.Upload(ctx, cfg, batch); err != nil {
			observability.RecordAnalyticsBatch("failed")
			errs = append(errs, err)
			continue
		}
		if err := q.store.DeleteByIDs(ctx, batch.IDs()); err != nil {
			errs = append(errs, err)
			continue
		}
		observability.RecordAnalyticsBatch("sent")
	}

	q.updatePending(ctx)
	return q.recordResult(errors.Join(errs...))
}

func (q *queue) recordResult(err error) error {
	if err == nil {
		q.failures = 0
		q.retryAt = time.Time{}
		return nil
	}

	delay := q.config.FlushInterval
	if q.config.Backoff != nil {
		delay = q.config.Backoff.NextDelay(q.failures)
	}
	q.failures++
	q.retryAt = q.now().Add(delay)
	return err
}

func (q *queue) updatePending(ctx context.Context) {
	if count, err := q.store.Count(ctx); err == nil {
		observability.SetAnalyticsPending(count)
	}
}
