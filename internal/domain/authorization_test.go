package domain

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientTokenFixture(t *testing.T, doc string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(doc))
}

func uatFixture(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseAuthorization_TokenizationKey(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		configURL  string
		merchantID string
	}{
		{
			name:       "sandbox",
			input:      "sandbox_fjajdkd_merchant_id",
			configURL:  "https://api.sandbox.braintreegateway.com/merchants/merchant_id/client_api/v1/configuration",
			merchantID: "merchant_id",
		},
		{
			name:       "production",
			input:      "production_abc123_acme",
			configURL:  "https://api.braintreegateway.com/merchants/acme/client_api/v1/configuration",
			merchantID: "acme",
		},
		{
			name:       "development",
			input:      "development_testing_integration_merchant_id",
			configURL:  "http://localhost:3000/merchants/integration_merchant_id/client_api/v1/configuration",
			merchantID: "integration_merchant_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := ParseAuthorization(tt.input)
			require.NoError(t, err)

			key, ok := auth.(*TokenizationKey)
			require.True(t, ok, "expected *TokenizationKey, got %T", auth)
			assert.Equal(t, AuthorizationTokenizationKey, key.Kind())
			assert.Equal(t, tt.input, key.Bearer())
			assert.Equal(t, tt.input, key.String())
			assert.Equal(t, tt.configURL, key.ConfigURL())
			assert.Equal(t, tt.merchantID, key.MerchantID())
			assert.Equal(t, tt.merchantID, MerchantIDOf(key))
		})
	}
}

func TestParseAuthorization_ClientToken(t *testing.T) {
	raw := clientTokenFixture(t, `{
		"configUrl": "https://api.sandbox.braintreegateway.com:443/merchants/integration_merchant_id/client_api/v1/configuration",
		"authorizationFingerprint": "fingerprint-abc|created_at=2024",
		"version": 2
	}`)

	auth, err := ParseAuthorization(raw)
	require.NoError(t, err)

	token, ok := auth.(*ClientToken)
	require.True(t, ok, "expected *ClientToken, got %T", auth)
	assert.Equal(t, AuthorizationClientToken, token.Kind())
	assert.Equal(t, "fingerprint-abc|created_at=2024", token.Bearer())
	assert.NotEmpty(t, token.AuthorizationFingerprint())
	assert.Equal(t, "https://api.sandbox.braintreegateway.com:443/merchants/integration_merchant_id/client_api", token.ClientAPIURL())
	assert.Equal(t, "integration_merchant_id", token.MerchantID())
	assert.Equal(t, raw, token.String())
}

func TestParseAuthorization_ClientTokenUnpadded(t *testing.T) {
	raw := base64.RawStdEncoding.EncodeToString([]byte(
		`{"configUrl":"https://example.com/merchants/m1/client_api/v1/configuration","authorizationFingerprint":"fp"}`))

	auth, err := ParseAuthorization(raw)
	require.NoError(t, err)
	assert.Equal(t, "fp", auth.Bearer())
}

func TestParseAuthorization_PayPalUAT(t *testing.T) {
	raw := uatFixture(t, jwt.MapClaims{
		"iss":         "https://api.sandbox.paypal.com",
		"external_id": []string{"PayPal:1234", "Braintree:sandbox-merchant"},
	})

	auth, err := ParseAuthorization(raw)
	require.NoError(t, err)

	uat, ok := auth.(*PayPalUAT)
	require.True(t, ok, "expected *PayPalUAT, got %T", auth)
	assert.Equal(t, AuthorizationPayPalUAT, uat.Kind())
	assert.Equal(t, raw, uat.Bearer())
	assert.Equal(t, EnvironmentSandbox, uat.Environment())
	assert.Equal(t, "sandbox-merchant", uat.MerchantID())
	assert.Equal(t, "https://api.sandbox.braintreegateway.com/merchants/sandbox-merchant/client_api/v1/configuration", uat.ConfigURL())
}

func TestParseAuthorization_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   "},
		{name: "unknown_environment", input: "staging_abc_merchant"},
		{name: "not_base64", input: "not a credential!"},
		{name: "base64_not_json", input: base64.StdEncoding.EncodeToString([]byte("plain text"))},
		{name: "missing_fingerprint", input: base64.StdEncoding.EncodeToString([]byte(`{"configUrl":"https://example.com/v1/configuration"}`))},
		{name: "empty_fingerprint", input: base64.StdEncoding.EncodeToString([]byte(`{"configUrl":"https://example.com/v1/configuration","authorizationFingerprint":""}`))},
		{name: "missing_config_url", input: base64.StdEncoding.EncodeToString([]byte(`{"authorizationFingerprint":"fp"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := ParseAuthorization(tt.input)
			require.Error(t, err)
			assert.Nil(t, auth)
			assert.True(t, IsDomainError(err, ErrorCodeInvalidAuthorization))
		})
	}
}

func TestParseAuthorization_InvalidUAT(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{
			name:   "unknown_issuer",
			claims: jwt.MapClaims{"iss": "https://evil.example.com", "external_id": []string{"Braintree:m"}},
		},
		{
			name:   "no_braintree_merchant",
			claims: jwt.MapClaims{"iss": "https://api.paypal.com", "external_id": []string{"PayPal:1234"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := ParseAuthorization(uatFixture(t, tt.claims))
			require.Error(t, err)
			assert.Nil(t, auth)
			assert.Equal(t, ErrorCodeInvalidAuthorization, GetErrorCode(err))
		})
	}
}
