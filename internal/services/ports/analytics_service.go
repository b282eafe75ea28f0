package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// AnalyticsQueue accepts usage events and uploads them in batches
type AnalyticsQueue interface {
	// Enqueue hands the event to the queue without blocking the caller
	Enqueue(event domain.AnalyticsEvent)

	// Flush uploads every pending event and waits for the result
	Flush(ctx context.Context) error

	// Close stops background work after a final flush attempt
	Close(ctx context.Context) error
}
