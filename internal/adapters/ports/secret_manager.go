package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., a client token or tokenization key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for reading merchant credentials from a secret store
// Backends: local filesystem, AWS Secrets Manager, HashiCorp Vault
// Implementations cache secrets with a TTL.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - Local: relative file path under the base directory
	//   - AWS: "payment-sdk/merchants/{merchant_id}/authorization"
	//   - Vault: "secret/data/payment-sdk/merchants/{merchant_id}"
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
