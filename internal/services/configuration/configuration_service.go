package configuration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sync"
	"time"

	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// configVersion is the configuration schema version requested from the gateway
const configVersion = "3"

// Config contains configuration for the configuration service
type Config struct {
	TTL      time.Duration
	Timeouts *resilience.TimeoutConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		TTL:      5 * time.Minute,
		Timeouts: resilience.DefaultTimeoutConfig(),
	}
}

type cachedConfiguration struct {
	configuration *domain.Configuration
	expiresAt     time.Time
}

// configurationService implements the ConfigurationService port
type configurationService struct {
	client adapterports.GatewayClient
	auth   domain.Authorization
	config *Config
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedConfiguration
	group singleflight.Group
	now   func() time.Time
}

// NewConfigurationService creates a new configuration service
func NewConfigurationService(
	client adapterports.GatewayClient,
	auth domain.Authorization,
	cfg *Config,
	logger *zap.Logger,
) ports.ConfigurationService {
	return &configurationService{
		client: client,
		auth:   auth,
		config: cfg,
		logger: logger,
		cache:  make(map[string]cachedConfiguration),
		now:    time.Now,
	}
}

// Fetch returns the configuration for the session's authorization.
// Concurrent misses share a single gateway request.
func (s *configurationService) Fetch(ctx context.Context) (*domain.Configuration, error) {
	configURL := s.auth.ConfigURL()
	key := cacheKey(configURL, s.auth.Bearer())

	if cfg := s.lookup(key); cfg != nil {
		observability.RecordConfigurationCache("hit")
		return cfg, nil
	}
	observability.RecordConfigurationCache("miss")

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		// A caller that missed just before another stored the result
		if cfg := s.lookup(key); cfg != nil {
			return cfg, nil
		}
		return s.load(ctx, configURL, key)
	})
	if err != nil {
		observability.RecordConfigurationCache("error")
		return nil, err
	}
	if shared {
		s.logger.Debug("Configuration fetch shared with a concurrent caller")
	}
	return v.(*domain.Configuration), nil
}

func (s *configurationService) load(ctx context.Context, configURL, key string) (*domain.Configuration, error) {
	ctx, cancel := s.config.Timeouts.ConfigurationContext(ctx)
	defer cancel()

	target, err := withConfigVersion(configURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetching remote configuration",
		zap.String("authorization_type", string(s.auth.Kind())),
	)

	body, err := s.client.Get(ctx, target, nil)
	if err != nil {
		s.logger.Warn("Failed to fetch remote configuration", zap.Error(err))
		return nil, err
	}

	cfg, err := domain.ParseConfiguration(body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cachedConfiguration{
		configuration: cfg,
		expiresAt:     s.now().Add(s.config.TTL),
	}
	s.mu.Unlock()

	s.logger.Debug("Cached remote configuration",
		zap.String("environment", cfg.Environment),
		zap.String("merchant_id", cfg.MerchantID),
		zap.Duration("ttl", s.config.TTL),
	)
	return cfg, nil
}

func (s *configurationService) lookup(key string) *domain.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil
	}
	return entry.configuration
}

// Invalidate drops every cached configuration
func (s *configurationService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]cachedConfiguration)
	s.mu.Unlock()

	s.logger.Debug("Invalidated configuration cache")
}

// The bearer is hashed so credentials never sit in map keys
func cacheKey(configURL, bearer string) string {
	sum := sha256.Sum256([]byte(bearer))
	return configURL + "#" + hex.EncodeToString(sum[:8])
}

func withConfigVersion(configURL string) (string, error) {
	u, err := url.Parse(configURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAuthorization, "authorization has an invalid configuration URL").
			WithDetail("config_url", configURL)
	}
	q := u.Query()
	q.Set("configVersion", configVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
