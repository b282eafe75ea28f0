package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"go.uber.org/zap"
)

// latestVersion is the only version a directory can serve
const latestVersion = "latest"

// LocalConfig contains configuration for the directory-backed secret source
type LocalConfig struct {
	BaseDir string
	// Field names the JSON key holding the authorization string
	Field string
}

// localSecretManager reads secrets from files under a base directory.
// Development only: files are plain text or a JSON object.
type localSecretManager struct {
	baseDir string
	field   string
	logger  *zap.Logger
}

// NewLocalSecretManager creates a directory-backed secret source
func NewLocalSecretManager(cfg *LocalConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	base, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secrets directory: %w", err)
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("secrets directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path %s is not a directory", base)
	}

	logger.Warn("Using local secret files, not for production use",
		zap.String("dir", base),
	)

	return &localSecretManager{
		baseDir: base,
		field:   cfg.Field,
		logger:  logger,
	}, nil
}

// GetSecret reads <baseDir>/<path>
func (m *localSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	file, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	value, metadata, err := fromString(string(data), m.field)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	m.logger.Debug("Read secret from file", zap.String("path", path))

	secret := &ports.Secret{
		Value:    value,
		Version:  latestVersion,
		Metadata: metadata,
	}
	if info, err := os.Stat(file); err == nil {
		secret.CreatedAt = info.ModTime().UTC().Format(time.RFC3339)
	}
	return secret, nil
}

// GetSecretVersion only serves the latest version
func (m *localSecretManager) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	if version != "" && version != latestVersion {
		return nil, fmt.Errorf("local secrets are not versioned: requested %s", version)
	}
	return m.GetSecret(ctx, path)
}

// resolve keeps lookups inside the base directory
func (m *localSecretManager) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("secret path is required")
	}
	file := filepath.Join(m.baseDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(m.baseDir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("secret path %s escapes the secrets directory", path)
	}
	return file, nil
}
