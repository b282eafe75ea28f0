package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/analytics"
	"github.com/kevin07696/payment-sdk/internal/testutil/fixtures"
	"github.com/kevin07696/payment-sdk/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, cfg *Config) (*Session, *mocks.MockConfigurationService, *mocks.AnalyticsRecorder) {
	t.Helper()
	auth, err := domain.ParseAuthorization(fixtures.TokenizationKey)
	require.NoError(t, err)

	configuration := &mocks.MockConfigurationService{}
	recorder := &mocks.AnalyticsRecorder{}
	s, err := New(Dependencies{
		Authorization:  auth,
		Client:         &mocks.MockGatewayClient{},
		Configuration:  configuration,
		Analytics:      recorder,
		Device:         analytics.DeviceInfo{PlatformVersion: "go1.24", Model: "linux/amd64", Rooted: "false", IsSimulator: "Unknown"},
		InstallationID: "install-1",
	}, cfg, zap.NewNop())
	require.NoError(t, err)
	return s, configuration, recorder
}

func TestNew_Validation(t *testing.T) {
	auth, err := domain.ParseAuthorization(fixtures.TokenizationKey)
	require.NoError(t, err)

	_, err = New(Dependencies{}, nil, zap.NewNop())
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidAuthorization))

	_, err = New(Dependencies{Authorization: auth}, nil, zap.NewNop())
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidArgument))

	deps := Dependencies{Authorization: auth, Client: &mocks.MockGatewayClient{}, Configuration: &mocks.MockConfigurationService{}}
	_, err = New(deps, &Config{IntegrationType: "reflection"}, zap.NewNop())
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidArgument))

	s, err := New(deps, &Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, IntegrationCustom, s.IntegrationType())
	assert.Len(t, s.SessionID(), 32)
	assert.NotContains(t, s.SessionID(), "-")
	assert.NotNil(t, s.Timeouts())
}

func TestSession_ReturnURL(t *testing.T) {
	s, _, _ := newTestSession(t, &Config{ReturnURLScheme: "com.example.app.payments"})

	got, err := s.ReturnURL("onetouch/v1/success")
	require.NoError(t, err)
	assert.Equal(t, "com.example.app.payments://onetouch/v1/success", got)

	s, _, _ = newTestSession(t, &Config{})
	_, err = s.ReturnURL("onetouch/v1/success")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeConfigurationRequired))
}

func TestSession_ClientMetadataID(t *testing.T) {
	s, _, _ := newTestSession(t, nil)

	assert.Equal(t, "supplied", s.ClientMetadataID("supplied"))
	generated := s.ClientMetadataID("")
	assert.Len(t, generated, 32)
	assert.NotEqual(t, generated, s.ClientMetadataID(""))
}

func TestSession_SendAnalyticsEvent(t *testing.T) {
	s, configuration, recorder := newTestSession(t, &Config{MerchantAppID: "com.example.app", IntegrationType: IntegrationDropIn})
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	s.SendAnalyticsEvent("paypal.started")

	cfg, err := domain.ParseConfiguration(fixtures.Configuration(t, "https://gateway.test"))
	require.NoError(t, err)
	configuration.On("Fetch", mock.Anything).Return(cfg, nil).Once()
	_, err = s.Configuration(context.Background())
	require.NoError(t, err)

	s.SendAnalyticsEvent("paypal.succeeded")

	events := recorder.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "go.paypal.started", events[0].Name)
	assert.Equal(t, int64(1700000000000), events[0].Timestamp)

	var before, after domain.AnalyticsMetadata
	require.NoError(t, json.Unmarshal([]byte(events[0].Metadata), &before))
	require.NoError(t, json.Unmarshal([]byte(events[1].Metadata), &after))

	assert.Equal(t, domain.SDKPlatform, before.Platform)
	assert.Equal(t, domain.SDKVersion, before.SDKVersion)
	assert.Equal(t, "dropin", before.IntegrationType)
	assert.Equal(t, "install-1", before.DeviceAppGeneratedPersistentUUID)
	assert.Equal(t, string(domain.AuthorizationTokenizationKey), before.AuthorizationType)
	assert.Equal(t, s.SessionID(), before.SessionID)
	assert.Empty(t, before.Environment)

	// Metadata reflects what was known when each event was created
	assert.Equal(t, "development", after.Environment)
	assert.NotEqual(t, events[0].Metadata, events[1].Metadata)
}

func TestSession_ConfigurationErrorIsNotRemembered(t *testing.T) {
	s, configuration, _ := newTestSession(t, nil)
	configuration.On("Fetch", mock.Anything).Return(nil, errors.New("offline"))

	_, err := s.Configuration(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.metadata().Environment)
}

func TestSession_NilAnalytics(t *testing.T) {
	auth, err := domain.ParseAuthorization(fixtures.TokenizationKey)
	require.NoError(t, err)

	s, err := New(Dependencies{
		Authorization: auth,
		Client:        &mocks.MockGatewayClient{},
		Configuration: &mocks.MockConfigurationService{},
	}, nil, zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.SendAnalyticsEvent("anything") })
}
