package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// ConfigurationService fetches and caches the merchant's remote configuration
type ConfigurationService interface {
	// Fetch returns the cached configuration or loads it from the gateway
	Fetch(ctx context.Context) (*domain.Configuration, error)

	// Invalidate drops the cached configuration
	Invalidate()
}
