package card

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/internal/testutil/fixtures"
	"github.com/kevin07696/payment-sdk/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	service   ports.CardService
	client    *mocks.MockGatewayClient
	graphQL   *mocks.MockGraphQLClient
	analytics *mocks.AnalyticsRecorder
	cfg       *domain.Configuration
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth, err := domain.ParseAuthorization(fixtures.TokenizationKey)
	require.NoError(t, err)
	cfg, err := domain.ParseConfiguration(fixtures.Configuration(t, "https://gateway.test"))
	require.NoError(t, err)

	configuration := &mocks.MockConfigurationService{}
	configuration.On("Fetch", mock.Anything).Return(cfg, nil)

	env := &testEnv{
		client:    &mocks.MockGatewayClient{},
		graphQL:   &mocks.MockGraphQLClient{},
		analytics: &mocks.AnalyticsRecorder{},
		cfg:       cfg,
	}
	s, err := session.New(session.Dependencies{
		Authorization: auth,
		Client:        env.client,
		GraphQL:       env.graphQL,
		Configuration: configuration,
		Analytics:     env.analytics,
	}, &session.Config{SessionID: "session-1"}, zap.NewNop())
	require.NoError(t, err)

	env.service = NewCardService(s, zap.NewNop())
	return env
}

func testCard() *ports.Card {
	return &ports.Card{
		Number:          "4111111111111111",
		ExpirationMonth: "12",
		ExpirationYear:  "2030",
		CVV:             "123",
		CardholderName:  "Joe Smith",
		PostalCode:      "60606",
		ShouldValidate:  true,
	}
}

func TestTokenize_GraphQL(t *testing.T) {
	env := newTestEnv(t)

	var sent string
	env.graphQL.On("Post", mock.Anything, mock.Anything, env.cfg).
		Run(func(args mock.Arguments) { sent = args.String(1) }).
		Return(fixtures.Load(t, "graphql_tokenize_credit_card.json"), nil).Once()

	nonce, err := env.service.Tokenize(context.Background(), testCard())
	require.NoError(t, err)
	assert.Equal(t, "tokencc_3bbd22_fxmxpj_yxk7vp_4sb9w8_xk6", nonce.Nonce())
	assert.Equal(t, "CreditCard", nonce.PaymentType())
	assert.Equal(t, "Visa", nonce.CardType)
	assert.Equal(t, "11", nonce.LastTwo)
	assert.Equal(t, "1111", nonce.LastFour)
	assert.Equal(t, "ending in 11", nonce.Description)
	assert.Equal(t, "Joe Smith", nonce.CardholderName)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sent), &body))
	assert.Equal(t, "TokenizeCreditCard", body["operationName"])
	assert.Equal(t, "session-1", body["clientSdkMetadata"].(map[string]interface{})["sessionId"])
	input := body["variables"].(map[string]interface{})["input"].(map[string]interface{})
	creditCard := input["creditCard"].(map[string]interface{})
	assert.Equal(t, "4111111111111111", creditCard["number"])
	assert.Equal(t, "60606", creditCard["billingAddress"].(map[string]interface{})["postalCode"])
	assert.Equal(t, true, input["options"].(map[string]interface{})["validate"])

	env.client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{
		"go.card.graphql.tokenization.started",
		"go.card.graphql.tokenization.success",
	}, env.analytics.Names())
}

func TestTokenize_RESTWhenFeatureDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.GraphQL.Features = nil

	var sent string
	env.client.On("Post", mock.Anything, tokenizePath, mock.Anything, env.cfg).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return(fixtures.Load(t, "credit_card_rest_response.json"), nil).Once()

	nonce, err := env.service.Tokenize(context.Background(), testCard())
	require.NoError(t, err)
	assert.Equal(t, "rest-card-nonce", nonce.Nonce())
	assert.Equal(t, "Visa", nonce.CardType)
	assert.Equal(t, "2030", nonce.ExpirationYear)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sent), &body))
	creditCard := body["credit_card"].(map[string]interface{})
	assert.Equal(t, "12", creditCard["expiration_month"])
	assert.Equal(t, "60606", creditCard["billing_address"].(map[string]interface{})["postal_code"])
	assert.Equal(t, "custom", body["_meta"].(map[string]interface{})["integration"])

	env.graphQL.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenize_GatewayErrorIsReturned(t *testing.T) {
	env := newTestEnv(t)
	gatewayErr := errors.New("input is invalid")
	env.graphQL.On("Post", mock.Anything, mock.Anything, env.cfg).Return("", gatewayErr).Once()

	_, err := env.service.Tokenize(context.Background(), testCard())
	assert.ErrorIs(t, err, gatewayErr)
	assert.Contains(t, env.analytics.Names(), "go.card.graphql.tokenization.failure")
}

func TestTokenize_MissingToken(t *testing.T) {
	env := newTestEnv(t)
	env.graphQL.On("Post", mock.Anything, mock.Anything, env.cfg).
		Return(`{"data":{"tokenizeCreditCard":null}}`, nil).Once()

	_, err := env.service.Tokenize(context.Background(), testCard())
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeJSONParse))
}

func TestTokenize_RequiresNumber(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Tokenize(context.Background(), &ports.Card{Number: "  "})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidArgument))
	assert.Empty(t, env.analytics.Names())
}

func TestBrandName(t *testing.T) {
	assert.Equal(t, "MasterCard", brandName("MASTERCARD"))
	assert.Equal(t, "AMEX", brandName("AMERICAN_EXPRESS"))
	assert.Equal(t, "Unknown", brandName("SOMETHING_NEW"))
}
