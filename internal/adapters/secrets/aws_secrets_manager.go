package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"go.uber.org/zap"
)

// AWSSecretsManagerConfig contains configuration for the AWS Secrets Manager source
type AWSSecretsManagerConfig struct {
	Region string

	// Optional: shared config profile for local development
	Profile string

	// Optional: custom endpoint (LocalStack)
	Endpoint string

	// Field names the JSON key holding the authorization string
	Field string

	// Zero disables caching
	CacheTTL time.Duration
}

// DefaultAWSSecretsManagerConfig returns default configuration
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:   region,
		Field:    DefaultField,
		CacheTTL: 5 * time.Minute,
	}
}

// secretValueAPI is the part of the Secrets Manager client this adapter uses
type secretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// awsSecretsManagerAdapter implements the SecretManagerAdapter port for AWS Secrets Manager
type awsSecretsManagerAdapter struct {
	client secretValueAPI
	field  string
	cache  *secretCache
	logger *zap.Logger
}

// NewAWSSecretsManagerAdapter creates an adapter using the default credential chain
func NewAWSSecretsManagerAdapter(ctx context.Context, cfg *AWSSecretsManagerConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsConfig, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("AWS Secrets Manager source initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return newAWSSecretsManagerAdapter(client, cfg, logger), nil
}

func newAWSSecretsManagerAdapter(client secretValueAPI, cfg *AWSSecretsManagerConfig, logger *zap.Logger) *awsSecretsManagerAdapter {
	return &awsSecretsManagerAdapter{
		client: client,
		field:  cfg.Field,
		cache:  newSecretCache(cfg.CacheTTL),
		logger: logger,
	}
}

// GetSecret retrieves the AWSCURRENT version of a secret by name or ARN
func (a *awsSecretsManagerAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	return a.fetch(ctx, path, "")
}

// GetSecretVersion accepts a version id or a staging label such as AWSPREVIOUS
func (a *awsSecretsManagerAdapter) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	return a.fetch(ctx, path, version)
}

func (a *awsSecretsManagerAdapter) fetch(ctx context.Context, path, version string) (*ports.Secret, error) {
	key := cacheKey(path, version)
	if cached := a.cache.get(key); cached != nil {
		return cached, nil
	}

	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(path)}
	switch {
	case version == "":
	case strings.HasPrefix(version, "AWS"):
		input.VersionStage = aws.String(version)
	default:
		input.VersionId = aws.String(version)
	}

	start := time.Now()
	out, err := a.client.GetSecretValue(ctx, input)
	if err != nil {
		var notFound *secretsmanagertypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		a.logger.Error("Failed to retrieve secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	raw := aws.ToString(out.SecretString)
	if out.SecretString == nil && len(out.SecretBinary) > 0 {
		raw = string(out.SecretBinary)
	}
	value, metadata, err := fromString(raw, a.field)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if out.ARN != nil {
		metadata["arn"] = aws.ToString(out.ARN)
	}
	if len(out.VersionStages) > 0 {
		metadata["stages"] = strings.Join(out.VersionStages, ",")
	}

	secret := &ports.Secret{
		Value:    value,
		Version:  aws.ToString(out.VersionId),
		Metadata: metadata,
	}
	if out.CreatedDate != nil {
		secret.CreatedAt = out.CreatedDate.UTC().Format(time.RFC3339)
	}

	a.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.String("version", secret.Version),
		zap.Duration("elapsed", time.Since(start)),
	)

	a.cache.set(key, secret)
	return secret, nil
}
