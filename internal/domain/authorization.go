package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthorizationKind identifies which credential variant a merchant supplied
type AuthorizationKind string

const (
	AuthorizationTokenizationKey AuthorizationKind = "TOKENIZATION_KEY"
	AuthorizationClientToken     AuthorizationKind = "CLIENT_TOKEN"
	AuthorizationPayPalUAT       AuthorizationKind = "USER_ACCESS_TOKEN"
)

// Environment names used by the gateway
const (
	EnvironmentDevelopment = "development"
	EnvironmentSandbox     = "sandbox"
	EnvironmentProduction  = "production"
)

// Authorization is a parsed, immutable merchant credential.
// String returns the original credential and must never be logged.
type Authorization interface {
	Kind() AuthorizationKind
	Bearer() string
	ConfigURL() string
	String() string
}

var (
	tokenizationKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]+_[a-zA-Z0-9]+_[a-zA-Z0-9_]+$`)
	jwtPattern             = regexp.MustCompile(`^[a-zA-Z0-9\-_=]+\.[a-zA-Z0-9\-_=]+\.[a-zA-Z0-9\-_.+/=]*$`)
)

// ParseAuthorization resolves a merchant-supplied credential string.
// It either returns a fully populated Authorization or an INVALID_AUTHORIZATION error.
func ParseAuthorization(s string) (Authorization, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, NewDomainError(ErrorCodeInvalidAuthorization, "authorization cannot be empty")
	}

	var (
		auth Authorization
		err  error
	)
	switch {
	case tokenizationKeyPattern.MatchString(s):
		auth, err = parseTokenizationKey(s)
	case jwtPattern.MatchString(s):
		auth, err = parsePayPalUAT(s)
	default:
		auth, err = parseClientToken(s)
	}
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// TokenizationKey is a static, publishable key of the form <environment>_<random>_<merchantId>
type TokenizationKey struct {
	raw         string
	environment string
	merchantID  string
	configURL   string
}

func parseTokenizationKey(s string) (*TokenizationKey, error) {
	parts := strings.SplitN(s, "_", 3)
	environment, merchantID := parts[0], parts[2]

	baseURL, err := gatewayBaseURL(environment)
	if err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "tokenization key has an unknown environment", err)
	}

	return &TokenizationKey{
		raw:         s,
		environment: environment,
		merchantID:  merchantID,
		configURL:   fmt.Sprintf("%s/merchants/%s/client_api/v1/configuration", baseURL, merchantID),
	}, nil
}

func (k *TokenizationKey) Kind() AuthorizationKind { return AuthorizationTokenizationKey }
func (k *TokenizationKey) Bearer() string          { return k.raw }
func (k *TokenizationKey) ConfigURL() string       { return k.configURL }
func (k *TokenizationKey) String() string          { return k.raw }

// Environment returns the environment prefix of the key
func (k *TokenizationKey) Environment() string { return k.environment }

// MerchantID returns the merchant the key belongs to
func (k *TokenizationKey) MerchantID() string { return k.merchantID }

// ClientToken is a short-lived, server-generated credential carrying an authorization fingerprint
type ClientToken struct {
	raw                      string
	authorizationFingerprint string
	configURL                string
	clientAPIURL             string
	merchantID               string
}

type clientTokenDocument struct {
	ConfigURL                string `json:"configUrl"`
	AuthorizationFingerprint string `json:"authorizationFingerprint"`
	MerchantID               string `json:"merchantId"`
}

func parseClientToken(s string) (*ClientToken, error) {
	decoded, err := decodeBase64(s)
	if err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "authorization is not a tokenization key, client token or PayPal UAT", err)
	}

	var doc clientTokenDocument
	if err := json.Unmarshal(decoded, &doc); err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "client token is not valid JSON", err)
	}
	if doc.AuthorizationFingerprint == "" {
		return nil, NewDomainError(ErrorCodeInvalidAuthorization, "client token is missing an authorization fingerprint")
	}
	if doc.ConfigURL == "" {
		return nil, NewDomainError(ErrorCodeInvalidAuthorization, "client token is missing a configuration URL")
	}
	if _, err := url.ParseRequestURI(doc.ConfigURL); err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "client token has an invalid configuration URL", err)
	}

	merchantID := doc.MerchantID
	if merchantID == "" {
		merchantID = merchantIDFromPath(doc.ConfigURL)
	}

	return &ClientToken{
		raw:                      s,
		authorizationFingerprint: doc.AuthorizationFingerprint,
		configURL:                doc.ConfigURL,
		clientAPIURL:             strings.TrimSuffix(doc.ConfigURL, "/v1/configuration"),
		merchantID:               merchantID,
	}, nil
}

func (t *ClientToken) Kind() AuthorizationKind { return AuthorizationClientToken }
func (t *ClientToken) Bearer() string          { return t.authorizationFingerprint }
func (t *ClientToken) ConfigURL() string       { return t.configURL }
func (t *ClientToken) String() string          { return t.raw }

// AuthorizationFingerprint returns the fingerprint injected into every request
func (t *ClientToken) AuthorizationFingerprint() string { return t.authorizationFingerprint }

// ClientAPIURL returns the base URL for relative client API paths
func (t *ClientToken) ClientAPIURL() string { return t.clientAPIURL }

// MerchantID returns the merchant id embedded in the token, if any
func (t *ClientToken) MerchantID() string { return t.merchantID }

// PayPalUAT is a PayPal user access token usable against the gateway
type PayPalUAT struct {
	raw         string
	environment string
	merchantID  string
	configURL   string
}

func parsePayPalUAT(s string) (*PayPalUAT, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s, claims); err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "PayPal UAT is not a valid JWT", err)
	}

	issuer, _ := claims["iss"].(string)
	var environment string
	switch issuer {
	case "https://api.paypal.com":
		environment = EnvironmentProduction
	case "https://api.sandbox.paypal.com", "https://api.msmaster.qa.paypal.com":
		environment = EnvironmentSandbox
	default:
		return nil, NewDomainError(ErrorCodeInvalidAuthorization, "PayPal UAT has an unknown issuer").
			WithDetail("issuer", issuer)
	}

	var merchantID string
	if externalIDs, ok := claims["external_id"].([]interface{}); ok {
		for _, raw := range externalIDs {
			id, _ := raw.(string)
			if strings.HasPrefix(id, "Braintree:") {
				merchantID = strings.TrimPrefix(id, "Braintree:")
				break
			}
		}
	}
	if merchantID == "" {
		return nil, NewDomainError(ErrorCodeInvalidAuthorization, "PayPal UAT does not reference a Braintree merchant")
	}

	baseURL, err := gatewayBaseURL(environment)
	if err != nil {
		return nil, WrapError(ErrorCodeInvalidAuthorization, "PayPal UAT environment", err)
	}

	return &PayPalUAT{
		raw:         s,
		environment: environment,
		merchantID:  merchantID,
		configURL:   fmt.Sprintf("%s/merchants/%s/client_api/v1/configuration", baseURL, merchantID),
	}, nil
}

func (u *PayPalUAT) Kind() AuthorizationKind { return AuthorizationPayPalUAT }
func (u *PayPalUAT) Bearer() string          { return u.raw }
func (u *PayPalUAT) ConfigURL() string       { return u.configURL }
func (u *PayPalUAT) String() string          { return u.raw }

// Environment returns the environment derived from the token issuer
func (u *PayPalUAT) Environment() string { return u.environment }

// MerchantID returns the Braintree merchant referenced by the token
func (u *PayPalUAT) MerchantID() string { return u.merchantID }

// MerchantIDOf returns the merchant id carried by any authorization variant
func MerchantIDOf(auth Authorization) string {
	switch a := auth.(type) {
	case *TokenizationKey:
		return a.merchantID
	case *ClientToken:
		return a.merchantID
	case *PayPalUAT:
		return a.merchantID
	default:
		return ""
	}
}

func gatewayBaseURL(environment string) (string, error) {
	switch environment {
	case EnvironmentDevelopment:
		return "http://localhost:3000", nil
	case EnvironmentSandbox:
		return "https://api.sandbox.braintreegateway.com", nil
	case EnvironmentProduction:
		return "https://api.braintreegateway.com", nil
	default:
		return "", fmt.Errorf("unknown environment %q", environment)
	}
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func merchantIDFromPath(configURL string) string {
	u, err := url.Parse(configURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "merchants" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}
