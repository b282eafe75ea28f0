package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// GatewayClient is the authenticated client API client.
// Relative paths are resolved against cfg.ClientAPIURL; cfg may be nil for absolute paths.
type GatewayClient interface {
	Get(ctx context.Context, path string, cfg *domain.Configuration) (string, error)
	Post(ctx context.Context, path, body string, cfg *domain.Configuration) (string, error)
}

// GraphQLClient posts GraphQL documents to the endpoint named in configuration
type GraphQLClient interface {
	Post(ctx context.Context, body string, cfg *domain.Configuration) (string, error)
}
