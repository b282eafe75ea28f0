package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Secret backends for BT_AUTHORIZATION_SECRET
const (
	SecretBackendLocal = "local"
	SecretBackendAWS   = "aws"
	SecretBackendVault = "vault"
)

// Config holds all harness configuration
type Config struct {
	Environment string
	Logger      LoggerConfig
	Credentials CredentialsConfig
	Session     SessionConfig
	Analytics   AnalyticsConfig
	HTTP        HTTPConfig
	Metrics     MetricsConfig
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// CredentialsConfig says where the authorization string comes from.
// Authorization wins over SecretPath when both are set.
type CredentialsConfig struct {
	Authorization string
	SecretPath    string
	SecretBackend string
	SecretsDir    string
	SecretField   string
	SecretTTL     time.Duration

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress string
	VaultToken   string
	VaultMount   string
}

// SessionConfig holds the host settings passed to the session
type SessionConfig struct {
	ReturnURLScheme string
	IntegrationType string // custom or dropin
	MerchantAppID   string
	MerchantAppName string
}

// AnalyticsConfig holds analytics queue settings
type AnalyticsConfig struct {
	// DBPath is the SQLite file; empty keeps events in memory
	DBPath        string
	BatchSize     int
	FlushInterval time.Duration
}

// HTTPConfig holds transport settings
type HTTPConfig struct {
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	WorkerPoolSize    int
	RequestsPerSecond float64

	// PEM bundles replacing the embedded certificates of one host kind
	GatewayCAFile string
	GraphQLCAFile string
	APICAFile     string
}

// MetricsConfig holds the optional Prometheus endpoint
type MetricsConfig struct {
	// Port 0 disables the metrics server
	Port int
}

// LoadFromEnv loads configuration from environment variables.
// Variables in envFiles (default .env) fill in anything not already set; missing files are ignored.
func LoadFromEnv(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Credentials: CredentialsConfig{
			Authorization: getEnv("BT_AUTHORIZATION", ""),
			SecretPath:    getEnv("BT_AUTHORIZATION_SECRET", ""),
			SecretBackend: getEnv("SECRET_BACKEND", SecretBackendLocal),
			SecretsDir:    getEnv("SECRETS_DIR", "./secrets"),
			SecretField:   getEnv("SECRET_FIELD", "authorization"),
			SecretTTL:     getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
			AWSRegion:     getEnv("AWS_REGION", ""),
			AWSProfile:    getEnv("AWS_PROFILE", ""),
			AWSEndpoint:   getEnv("AWS_ENDPOINT_URL", ""),
			VaultAddress:  getEnv("VAULT_ADDR", ""),
			VaultToken:    getEnv("VAULT_TOKEN", ""),
			VaultMount:    getEnv("VAULT_MOUNT", "secret"),
		},
		Session: SessionConfig{
			ReturnURLScheme: getEnv("BT_RETURN_URL_SCHEME", ""),
			IntegrationType: getEnv("BT_INTEGRATION_TYPE", "custom"),
			MerchantAppID:   getEnv("BT_MERCHANT_APP_ID", ""),
			MerchantAppName: getEnv("BT_MERCHANT_APP_NAME", ""),
		},
		Analytics: AnalyticsConfig{
			DBPath:        getEnv("BT_ANALYTICS_DB_PATH", ""),
			BatchSize:     getEnvAsInt("BT_ANALYTICS_BATCH_SIZE", 5),
			FlushInterval: getEnvAsDuration("BT_ANALYTICS_FLUSH_INTERVAL", 30*time.Second),
		},
		HTTP: HTTPConfig{
			ConnectTimeout:    getEnvAsDuration("BT_CONNECT_TIMEOUT", 30*time.Second),
			ReadTimeout:       getEnvAsDuration("BT_READ_TIMEOUT", 60*time.Second),
			WorkerPoolSize:    getEnvAsInt("BT_WORKER_POOL_SIZE", 4),
			RequestsPerSecond: getEnvAsFloat("BT_REQUESTS_PER_SECOND", 0),
			GatewayCAFile:     getEnv("BT_GATEWAY_CA_FILE", ""),
			GraphQLCAFile:     getEnv("BT_GRAPHQL_CA_FILE", ""),
			APICAFile:         getEnv("BT_API_CA_FILE", ""),
		},
		Metrics: MetricsConfig{
			Port: getEnvAsInt("BT_METRICS_PORT", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error naming the first invalid or missing setting
func (c *Config) Validate() error {
	creds := c.Credentials
	if creds.Authorization == "" && creds.SecretPath == "" {
		return fmt.Errorf("BT_AUTHORIZATION or BT_AUTHORIZATION_SECRET is required")
	}
	if creds.Authorization == "" {
		switch creds.SecretBackend {
		case SecretBackendLocal:
			if creds.SecretsDir == "" {
				return fmt.Errorf("SECRETS_DIR is required when SECRET_BACKEND=local")
			}
		case SecretBackendAWS:
			if creds.AWSRegion == "" {
				return fmt.Errorf("AWS_REGION is required when SECRET_BACKEND=aws")
			}
		case SecretBackendVault:
			if creds.VaultAddress == "" {
				return fmt.Errorf("VAULT_ADDR is required when SECRET_BACKEND=vault")
			}
			if creds.VaultToken == "" {
				return fmt.Errorf("VAULT_TOKEN is required when SECRET_BACKEND=vault")
			}
		default:
			return fmt.Errorf("SECRET_BACKEND must be local, aws or vault, got %q", creds.SecretBackend)
		}
	}

	switch c.Session.IntegrationType {
	case "custom", "dropin":
	default:
		return fmt.Errorf("BT_INTEGRATION_TYPE must be custom or dropin, got %q", c.Session.IntegrationType)
	}

	if c.Analytics.BatchSize < 1 {
		return fmt.Errorf("BT_ANALYTICS_BATCH_SIZE must be at least 1")
	}
	if c.Analytics.FlushInterval <= 0 {
		return fmt.Errorf("BT_ANALYTICS_FLUSH_INTERVAL must be positive")
	}
	if c.HTTP.WorkerPoolSize < 1 {
		return fmt.Errorf("BT_WORKER_POOL_SIZE must be at least 1")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("BT_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
