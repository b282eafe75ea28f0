package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"go.uber.org/zap"
)

// Vault authentication methods
const (
	VaultAuthToken   = "token"
	VaultAuthAppRole = "approle"
)

// VaultConfig contains configuration for the HashiCorp Vault source
type VaultConfig struct {
	Address string

	// AuthMethod is "token" or "approle"
	AuthMethod string
	Token      string
	RoleID     string
	SecretID   string

	// Vault Enterprise namespace
	Namespace string

	// KV mount path (default: "secret")
	MountPath string

	// KVVersion is 1 or 2 (default: 2)
	KVVersion int

	// Field names the key holding the authorization string
	Field string

	// Zero disables caching
	CacheTTL time.Duration
}

// DefaultVaultConfig returns default configuration
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:    address,
		AuthMethod: VaultAuthToken,
		MountPath:  "secret",
		KVVersion:  2,
		Field:      DefaultField,
		CacheTTL:   5 * time.Minute,
	}
}

// vaultAdapter implements the SecretManagerAdapter port for HashiCorp Vault KV
type vaultAdapter struct {
	client *vault.Client
	config *VaultConfig
	cache  *secretCache
	logger *zap.Logger
}

// NewVaultAdapter creates an authenticated Vault adapter
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault source initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.Int("kv_version", cfg.KVVersion),
	)

	return &vaultAdapter{
		client: client,
		config: cfg,
		cache:  newSecretCache(cfg.CacheTTL),
		logger: logger,
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case VaultAuthToken, "":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case VaultAuthAppRole:
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret reads the latest version of a KV secret
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	return a.read(ctx, path, 0)
}

// GetSecretVersion reads a numbered KV v2 version
func (a *vaultAdapter) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	if a.config.KVVersion == 1 {
		return nil, fmt.Errorf("versioned reads require KV v2")
	}
	n, err := strconv.Atoi(version)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid Vault secret version %q", version)
	}
	return a.read(ctx, path, n)
}

func (a *vaultAdapter) read(ctx context.Context, path string, version int) (*ports.Secret, error) {
	key := cacheKey(path, "")
	if version > 0 {
		key = cacheKey(path, strconv.Itoa(version))
	}
	if cached := a.cache.get(key); cached != nil {
		return cached, nil
	}

	var (
		kv  *vault.KVSecret
		err error
	)
	switch {
	case a.config.KVVersion == 1:
		kv, err = a.client.KVv1(a.config.MountPath).Get(ctx, path)
	case version > 0:
		kv, err = a.client.KVv2(a.config.MountPath).GetVersion(ctx, path, version)
	default:
		kv, err = a.client.KVv2(a.config.MountPath).Get(ctx, path)
	}
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		a.logger.Error("Failed to read secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}

	value, metadata, err := fromFields(kv.Data, a.config.Field)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	secret := &ports.Secret{
		Value:    value,
		Version:  "1",
		Metadata: metadata,
	}
	if vm := kv.VersionMetadata; vm != nil {
		secret.Version = strconv.Itoa(vm.Version)
		secret.CreatedAt = vm.CreatedTime.UTC().Format(time.RFC3339)
	}

	a.cache.set(key, secret)
	return secret, nil
}
