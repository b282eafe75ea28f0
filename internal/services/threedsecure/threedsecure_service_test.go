package threedsecure

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/internal/testutil/fixtures"
	"github.com/kevin07696/payment-sdk/internal/testutil/mocks"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	scheme    = "com.example.app.payments"
	cardNonce = "123456-12345-12345-a-adfa"
)

func newTestService(t *testing.T) (ports.ThreeDSecureService, *mocks.MockGatewayClient, *domain.Configuration) {
	t.Helper()
	auth, err := domain.ParseAuthorization(fixtures.TokenizationKey)
	require.NoError(t, err)
	cfg, err := domain.ParseConfiguration(fixtures.Configuration(t, "https://gateway.test"))
	require.NoError(t, err)

	configuration := &mocks.MockConfigurationService{}
	configuration.On("Fetch", mock.Anything).Return(cfg, nil)

	client := &mocks.MockGatewayClient{}
	s, err := session.New(session.Dependencies{
		Authorization: auth,
		Client:        client,
		Configuration: configuration,
	}, &session.Config{ReturnURLScheme: scheme}, zap.NewNop())
	require.NoError(t, err)

	return NewThreeDSecureService(s, zap.NewNop()), client, cfg
}

func verifyRequest() *ports.ThreeDSecureRequest {
	return &ports.ThreeDSecureRequest{
		Nonce:              cardNonce,
		Amount:             decimal.RequireFromString("10"),
		Email:              "test@example.com",
		BillingAddress:     &domain.PostalAddress{RecipientName: "Jill", StreetAddress: "555 Smith St", PostalCode: "12345", CountryCodeAlpha2: "US"},
		ChallengeRequested: true,
	}
}

func TestCreatePaymentAuthRequest_ChallengeRequired(t *testing.T) {
	service, client, cfg := newTestService(t)

	var sent string
	client.On("Post", mock.Anything, lookupPath(cardNonce), mock.Anything, cfg).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return(fixtures.Load(t, "three_d_secure_lookup.json"), nil).Once()

	req, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
	require.NoError(t, err)
	require.True(t, req.LaunchRequired)
	assert.Equal(t, "merchant-descriptor", req.Params.Token)
	assert.Equal(t, cardNonce, req.Params.Extras[extraNonce])

	approval, err := url.Parse(req.BrowserSwitch.URL)
	require.NoError(t, err)
	assert.Equal(t, "/assets"+redirectPage, approval.Path)
	assert.Equal(t, "https://acs-url/", approval.Query().Get("AcsUrl"))
	assert.Equal(t, "pareq", approval.Query().Get("PaReq"))
	assert.Equal(t, "https://term-url/", approval.Query().Get("TermUrl"))
	assert.Equal(t, scheme+"://three-d-secure/success", approval.Query().Get("ReturnUrl"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sent), &body))
	assert.Equal(t, "10.00", body["amount"])
	assert.Equal(t, true, body["challengeRequested"])
	assert.Equal(t, "2", body["requestedThreeDSecureVersion"])
	customer := body["customer"].(map[string]interface{})
	assert.Equal(t, "test@example.com", customer["email"])
	assert.Equal(t, "555 Smith St", customer["billingAddress"].(map[string]interface{})["line1"])
}

func TestTokenize_Authenticates(t *testing.T) {
	service, client, cfg := newTestService(t)
	client.On("Post", mock.Anything, lookupPath(cardNonce), mock.Anything, cfg).
		Return(fixtures.Load(t, "three_d_secure_lookup.json"), nil).Once()
	client.On("Post", mock.Anything, authenticatePath(cardNonce), `{"auth_response":"signed-response"}`, cfg).
		Return(fixtures.Load(t, "three_d_secure_authenticate.json"), nil).Once()

	req, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
	require.NoError(t, err)

	result := service.Tokenize(context.Background(), domain.BrowserSwitchResult{
		Status:    domain.BrowserSwitchSuccess,
		ReturnURL: scheme + "://three-d-secure/success?md=merchant-descriptor&auth_response=signed-response",
		Metadata:  req.BrowserSwitch.Metadata,
	})
	require.Equal(t, domain.ResultSuccess, result.Status, "err: %v", result.Err)

	nonce := result.Nonce.(*domain.ThreeDSecureNonce)
	assert.Equal(t, "authenticated-3ds-nonce", nonce.Nonce())
	assert.Equal(t, "CreditCard", nonce.PaymentType())
	assert.Equal(t, "1111", nonce.LastFour)
	assert.True(t, nonce.ThreeDSecure.LiabilityShifted)
	assert.True(t, nonce.ThreeDSecure.LiabilityShiftPossible)
	client.AssertExpectations(t)
}

func TestTokenize_AuthenticationErrors(t *testing.T) {
	service, client, cfg := newTestService(t)
	client.On("Post", mock.Anything, lookupPath(cardNonce), mock.Anything, cfg).
		Return(fixtures.Load(t, "three_d_secure_lookup.json"), nil).Once()
	client.On("Post", mock.Anything, authenticatePath(cardNonce), mock.Anything, cfg).
		Return(fixtures.Load(t, "three_d_secure_authenticate_error.json"), nil).Once()

	req, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
	require.NoError(t, err)

	result := service.Tokenize(context.Background(), domain.BrowserSwitchResult{
		Status:    domain.BrowserSwitchSuccess,
		ReturnURL: scheme + "://three-d-secure/success?md=merchant-descriptor&auth_response=signed-response",
		Metadata:  req.BrowserSwitch.Metadata,
	})
	require.Equal(t, domain.ResultFailure, result.Status)

	var ewr *pkgerrors.ErrorWithResponse
	require.ErrorAs(t, result.Err, &ewr)
	assert.Equal(t, "Failed to authenticate, please try a different form of payment.", ewr.Message)
	require.NotNil(t, ewr.ErrorFor("three_d_secure_token"))
}

func TestTokenize_RejectsForeignDescriptor(t *testing.T) {
	service, client, cfg := newTestService(t)
	client.On("Post", mock.Anything, lookupPath(cardNonce), mock.Anything, cfg).
		Return(fixtures.Load(t, "three_d_secure_lookup.json"), nil).Once()

	req, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
	require.NoError(t, err)

	tests := []struct {
		name      string
		returnURL string
		status    domain.ResultStatus
		code      domain.ErrorCode
	}{
		{"different md", scheme + "://three-d-secure/success?md=other&auth_response=x", domain.ResultFailure, domain.ErrorCodeInconsistentData},
		{"missing md", scheme + "://three-d-secure/success?auth_response=x", domain.ResultFailure, domain.ErrorCodeInconsistentData},
		{"missing auth response", scheme + "://three-d-secure/success?md=merchant-descriptor", domain.ResultFailure, domain.ErrorCodeInconsistentData},
		{"cancel path", scheme + "://three-d-secure/cancel?md=merchant-descriptor", domain.ResultCancel, domain.ErrorCodeUserCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Tokenize(context.Background(), domain.BrowserSwitchResult{
				Status:    domain.BrowserSwitchSuccess,
				ReturnURL: tt.returnURL,
				Metadata:  req.BrowserSwitch.Metadata,
			})
			assert.Equal(t, tt.status, result.Status)
			assert.True(t, domain.IsDomainError(result.Err, tt.code), "err: %v", result.Err)
		})
	}
	client.AssertNotCalled(t, "Post", mock.Anything, authenticatePath(cardNonce), mock.Anything, mock.Anything)
}

func TestFrictionlessLookup(t *testing.T) {
	service, client, cfg := newTestService(t)
	client.On("Post", mock.Anything, lookupPath(cardNonce), mock.Anything, cfg).
		Return(fixtures.Load(t, "three_d_secure_lookup_frictionless.json"), nil).Once()

	req, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
	require.NoError(t, err)
	require.False(t, req.LaunchRequired)
	assert.Nil(t, req.BrowserSwitch)

	result := service.TokenizeWithoutLaunch(context.Background(), req)
	require.Equal(t, domain.ResultSuccess, result.Status, "err: %v", result.Err)
	nonce := result.Nonce.(*domain.ThreeDSecureNonce)
	assert.Equal(t, "frictionless-nonce", nonce.Nonce())
	assert.True(t, nonce.ThreeDSecure.LiabilityShifted)
	client.AssertNumberOfCalls(t, "Post", 1)
}

func TestCreatePaymentAuthRequest_Rejected(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		service, client, cfg := newTestService(t)
		cfg.ThreeDSecureEnabled = false

		_, err := service.CreatePaymentAuthRequest(context.Background(), verifyRequest())
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeFeatureNotEnabled))
		client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing nonce", func(t *testing.T) {
		service, _, _ := newTestService(t)
		req := verifyRequest()
		req.Nonce = ""
		_, err := service.CreatePaymentAuthRequest(context.Background(), req)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidArgument))
	})

	t.Run("negative amount", func(t *testing.T) {
		service, _, _ := newTestService(t)
		req := verifyRequest()
		req.Amount = decimal.NewFromInt(-1)
		_, err := service.CreatePaymentAuthRequest(context.Background(), req)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidArgument))
	})
}

func TestLookupPath_EscapesNonce(t *testing.T) {
	assert.Equal(t, "/v1/payment_methods/a%2Fb/three_d_secure/lookup", lookupPath("a/b"))
}
