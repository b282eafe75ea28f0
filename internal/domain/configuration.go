package domain

import (
	"encoding/json"
	"strings"
)

// GraphQL feature flags advertised by the gateway
const (
	GraphQLFeatureTokenizeCreditCards = "tokenize_credit_cards"
)

// Configuration is the merchant's remote configuration as returned by the gateway
type Configuration struct {
	ClientAPIURL        string              `json:"clientApiUrl"`
	Environment         string              `json:"environment"`
	MerchantID          string              `json:"merchantId"`
	MerchantAccountID   string              `json:"merchantAccountId,omitempty"`
	AssetsURL           string              `json:"assetsUrl"`
	Analytics           AnalyticsConfig     `json:"analytics"`
	GraphQL             GraphQLConfig       `json:"graphQL"`
	PayPalEnabled       bool                `json:"paypalEnabled"`
	PayPal              PayPalConfig        `json:"paypal"`
	ThreeDSecureEnabled bool                `json:"threeDSecureEnabled"`
	SEPADirectDebit     SEPADirectDebitConf `json:"sepaDirectDebit"`
	ChallengesRaw       []string            `json:"challenges,omitempty"`

	raw string
}

// AnalyticsConfig describes the analytics endpoint
type AnalyticsConfig struct {
	URL string `json:"url"`
}

// GraphQLConfig describes the GraphQL endpoint and its enabled features
type GraphQLConfig struct {
	URL      string   `json:"url"`
	Features []string `json:"features"`
}

// PayPalConfig holds merchant PayPal settings
type PayPalConfig struct {
	DisplayName      string `json:"displayName"`
	ClientID         string `json:"clientId"`
	CurrencyIsoCode  string `json:"currencyIsoCode"`
	Environment      string `json:"environment"`
	PrivacyURL       string `json:"privacyUrl,omitempty"`
	UserAgreementURL string `json:"userAgreementUrl,omitempty"`
}

// SEPADirectDebitConf holds merchant SEPA Direct Debit settings
type SEPADirectDebitConf struct {
	Enabled bool `json:"enabled"`
}

// ParseConfiguration decodes a configuration document
func ParseConfiguration(body string) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		return nil, WrapError(ErrorCodeJSONParse, "configuration response is not valid JSON", err)
	}
	cfg.raw = body
	return &cfg, nil
}

// Raw returns the document the configuration was parsed from
func (c *Configuration) Raw() string {
	return c.raw
}

// IsAnalyticsEnabled reports whether an analytics endpoint is configured
func (c *Configuration) IsAnalyticsEnabled() bool {
	return c != nil && c.Analytics.URL != ""
}

// IsGraphQLEnabled reports whether a GraphQL endpoint is configured
func (c *Configuration) IsGraphQLEnabled() bool {
	return c != nil && c.GraphQL.URL != ""
}

// IsGraphQLFeatureEnabled reports whether the gateway advertises the given GraphQL feature
func (c *Configuration) IsGraphQLFeatureEnabled(feature string) bool {
	if !c.IsGraphQLEnabled() {
		return false
	}
	for _, f := range c.GraphQL.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// IsChallengePresent reports whether the merchant requires the given card challenge (cvv, postal_code)
func (c *Configuration) IsChallengePresent(challenge string) bool {
	for _, ch := range c.ChallengesRaw {
		if strings.EqualFold(ch, challenge) {
			return true
		}
	}
	return false
}
