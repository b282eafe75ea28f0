// Package session holds the explicit client object every payment method service is built on.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/analytics"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"go.uber.org/zap"
)

// Integration types reported in analytics metadata
const (
	IntegrationCustom = "custom"
	IntegrationDropIn = "dropin"
)

// eventPrefix namespaces every analytics event sent by this SDK
const eventPrefix = "go."

// Config contains the host-supplied settings of a session
type Config struct {
	// ReturnURLScheme is the scheme the host registered for browser switch returns
	ReturnURLScheme string
	IntegrationType string
	MerchantAppID   string
	MerchantAppName string
	// SessionID is generated when empty
	SessionID string
	Timeouts  *resilience.TimeoutConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		IntegrationType: IntegrationCustom,
		Timeouts:        resilience.DefaultTimeoutConfig(),
	}
}

// Dependencies are the collaborators a session is constructed from.
// Analytics may be nil, in which case events are not recorded.
type Dependencies struct {
	Authorization  domain.Authorization
	Client         adapterports.GatewayClient
	GraphQL        adapterports.GraphQLClient
	Configuration  ports.ConfigurationService
	Analytics      ports.AnalyticsQueue
	Device         analytics.DeviceInfo
	InstallationID string
}

// Session is constructed once by the host and passed to each payment method service
type Session struct {
	auth          domain.Authorization
	client        adapterports.GatewayClient
	graphQL       adapterports.GraphQLClient
	configuration ports.ConfigurationService
	analytics     ports.AnalyticsQueue
	device        analytics.DeviceInfo
	installID     string
	config        Config
	logger        *zap.Logger

	mu   sync.RWMutex
	last *domain.Configuration
	now  func() time.Time
}

// New validates the dependencies and creates a session
func New(deps Dependencies, cfg *Config, logger *zap.Logger) (*Session, error) {
	if deps.Authorization == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidAuthorization, "authorization is required")
	}
	if deps.Client == nil || deps.Configuration == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "gateway client and configuration service are required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := *cfg
	switch c.IntegrationType {
	case "":
		c.IntegrationType = IntegrationCustom
	case IntegrationCustom, IntegrationDropIn:
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument,
			fmt.Sprintf("unknown integration type %q", c.IntegrationType))
	}
	if c.SessionID == "" {
		c.SessionID = NewSessionID()
	}
	if c.Timeouts == nil {
		c.Timeouts = resilience.DefaultTimeoutConfig()
	}

	return &Session{
		auth:          deps.Authorization,
		client:        deps.Client,
		graphQL:       deps.GraphQL,
		configuration: deps.Configuration,
		analytics:     deps.Analytics,
		device:        deps.Device,
		installID:     deps.InstallationID,
		config:        c,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// NewSessionID returns a fresh uuid without dashes
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Session) Authorization() domain.Authorization { return s.auth }
func (s *Session) Client() adapterports.GatewayClient  { return s.client }
func (s *Session) GraphQL() adapterports.GraphQLClient { return s.graphQL }
func (s *Session) Timeouts() *resilience.TimeoutConfig { return s.config.Timeouts }
func (s *Session) Logger() *zap.Logger                 { return s.logger }
func (s *Session) SessionID() string                   { return s.config.SessionID }
func (s *Session) IntegrationType() string             { return s.config.IntegrationType }
func (s *Session) ReturnURLScheme() string             { return s.config.ReturnURLScheme }
func (s *Session) Analytics() ports.AnalyticsQueue     { return s.analytics }

// ConfigurationService exposes the cache so callers can invalidate it
func (s *Session) ConfigurationService() ports.ConfigurationService { return s.configuration }

// Configuration fetches the merchant configuration and remembers it for analytics metadata
func (s *Session) Configuration(ctx context.Context) (*domain.Configuration, error) {
	cfg, err := s.configuration.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = cfg
	s.mu.Unlock()
	return cfg, nil
}

// ReturnURL templates <scheme>://<path>
func (s *Session) ReturnURL(path string) (string, error) {
	if s.config.ReturnURLScheme == "" {
		return "", domain.NewDomainError(domain.ErrorCodeConfigurationRequired,
			"a return URL scheme is required for browser switch flows")
	}
	return s.config.ReturnURLScheme + "://" + strings.TrimPrefix(path, "/"), nil
}

// ClientMetadataID returns the caller's id when supplied, otherwise a fresh one
func (s *Session) ClientMetadataID(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return NewSessionID()
}

// SendAnalyticsEvent records name with metadata captured now
func (s *Session) SendAnalyticsEvent(name string) {
	if s.analytics == nil {
		return
	}

	meta, err := s.metadata().Encode()
	if err != nil {
		s.logger.Warn("Failed to encode analytics metadata", zap.String("event", name), zap.Error(err))
		return
	}

	s.analytics.Enqueue(domain.AnalyticsEvent{
		Name:      eventPrefix + name,
		Timestamp: s.now().UnixMilli(),
		Metadata:  meta,
	})
}

func (s *Session) metadata() domain.AnalyticsMetadata {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	meta := domain.AnalyticsMetadata{
		Platform:                         domain.SDKPlatform,
		PlatformVersion:                  s.device.PlatformVersion,
		SDKVersion:                       domain.SDKVersion,
		MerchantAppID:                    s.config.MerchantAppID,
		MerchantAppName:                  s.config.MerchantAppName,
		SessionID:                        s.config.SessionID,
		IntegrationType:                  s.config.IntegrationType,
		DeviceRooted:                     s.device.Rooted,
		DeviceManufacturer:               s.device.Manufacturer,
		DeviceModel:                      s.device.Model,
		DeviceAppGeneratedPersistentUUID: s.installID,
		IsSimulator:                      s.device.IsSimulator,
		MerchantID:                       domain.MerchantIDOf(s.auth),
		AuthorizationType:                string(s.auth.Kind()),
	}
	if last != nil {
		if last.MerchantID != "" {
			meta.MerchantID = last.MerchantID
		}
		meta.Environment = last.Environment
	}
	return meta
}
