package main

import (
	"context"
	"fmt"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/adapters/secrets"
	"github.com/kevin07696/payment-sdk/internal/config"
	"go.uber.org/zap"
)

// resolveAuthorization returns BT_AUTHORIZATION when set, otherwise reads
// BT_AUTHORIZATION_SECRET from the configured secret backend
func resolveAuthorization(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	if cfg.Credentials.Authorization != "" {
		return cfg.Credentials.Authorization, nil
	}

	sm, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		return "", err
	}

	secret, err := sm.GetSecret(ctx, cfg.Credentials.SecretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read authorization: %w", err)
	}

	logger.Info("Authorization loaded from secret backend",
		zap.String("backend", cfg.Credentials.SecretBackend),
		zap.String("path", cfg.Credentials.SecretPath),
		zap.String("version", secret.Version),
	)
	return secret.Value, nil
}

// initSecretManager initializes the secret backend named by SECRET_BACKEND
// Supports:
//   - local (default): files under SECRETS_DIR
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault at VAULT_ADDR with VAULT_TOKEN
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	creds := cfg.Credentials

	switch creds.SecretBackend {
	case config.SecretBackendAWS:
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(creds.AWSRegion)
		awsCfg.Profile = creds.AWSProfile
		awsCfg.Endpoint = creds.AWSEndpoint
		awsCfg.Field = creds.SecretField
		awsCfg.CacheTTL = creds.SecretTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case config.SecretBackendVault:
		vaultCfg := secrets.DefaultVaultConfig(creds.VaultAddress)
		vaultCfg.Token = creds.VaultToken
		vaultCfg.MountPath = creds.VaultMount
		vaultCfg.Field = creds.SecretField
		vaultCfg.CacheTTL = creds.SecretTTL
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	case config.SecretBackendLocal:
		return secrets.NewLocalSecretManager(&secrets.LocalConfig{
			BaseDir: creds.SecretsDir,
			Field:   creds.SecretField,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown secret backend %q", creds.SecretBackend)
	}
}
