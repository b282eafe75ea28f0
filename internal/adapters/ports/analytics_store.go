package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// AnalyticsStore is the durable append-only queue behind analytics.
// Implementations serialize writers; callers never lock around it.
type AnalyticsStore interface {
	// Append persists one event and returns the id assigned by storage
	Append(ctx context.Context, event domain.AnalyticsEvent) (int64, error)

	// DrainGroupedByMetadata returns every pending event grouped by identical metadata.
	// Rows stay persisted until DeleteByIDs is called.
	DrainGroupedByMetadata(ctx context.Context) ([]domain.AnalyticsBatch, error)

	// DeleteByIDs removes acknowledged events
	DeleteByIDs(ctx context.Context, ids []int64) error

	// Count returns the number of pending events
	Count(ctx context.Context) (int64, error)

	// InstallationID returns an id generated once and persisted alongside the queue
	InstallationID(ctx context.Context) (string, error)

	Close() error
}
