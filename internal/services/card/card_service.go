// Package card tokenizes raw card data into single-use card nonces.
package card

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/redirect"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"go.uber.org/zap"
)

const (
	tokenizePath = "/v1/payment_methods/credit_cards"
	nonceType    = "CreditCard"
	sdkSource    = "client"
)

// brandNames maps GraphQL brand codes to the card types REST reports
var brandNames = map[string]string{
	"AMERICAN_EXPRESS": "AMEX",
	"DINERS":           "Diners Club",
	"DISCOVER":         "Discover",
	"JCB":              "JCB",
	"MAESTRO":          "Maestro",
	"MASTERCARD":       "MasterCard",
	"UNION_PAY":        "UnionPay",
	"VISA":             "Visa",
}

// cardService implements the CardService port
type cardService struct {
	session *session.Session
	logger  *zap.Logger
}

// NewCardService creates a new card tokenization service
func NewCardService(s *session.Session, logger *zap.Logger) ports.CardService {
	return &cardService{
		session: s,
		logger:  logger,
	}
}

// Tokenize uses GraphQL when the gateway advertises tokenize_credit_cards and REST otherwise
func (c *cardService) Tokenize(ctx context.Context, card *ports.Card) (*domain.CardNonce, error) {
	if card == nil || strings.TrimSpace(card.Number) == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "card number is required").WithDetail("field", "number")
	}

	cfg, err := c.session.Configuration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch configuration: %w", err)
	}

	api := "rest"
	if c.session.GraphQL() != nil && cfg.IsGraphQLFeatureEnabled(domain.GraphQLFeatureTokenizeCreditCards) {
		api = "graphql"
	}
	c.session.SendAnalyticsEvent("card." + api + ".tokenization.started")

	reqCtx, cancel := c.session.Timeouts().TokenizeContext(ctx)
	defer cancel()

	var nonce *domain.CardNonce
	if api == "graphql" {
		nonce, err = c.tokenizeGraphQL(reqCtx, card, cfg)
	} else {
		nonce, err = c.tokenizeREST(reqCtx, card, cfg)
	}
	if err != nil {
		c.session.SendAnalyticsEvent("card." + api + ".tokenization.failure")
		c.logger.Warn("Card tokenization failed",
			zap.String("api", api),
			zap.Error(err),
		)
		return nil, err
	}

	c.session.SendAnalyticsEvent("card." + api + ".tokenization.success")
	observability.RecordTokenization(nonce.PaymentType(), api)
	return nonce, nil
}

func (c *cardService) metadata() clientSDKMetadata {
	return clientSDKMetadata{
		Source:      sdkSource,
		Integration: c.session.IntegrationType(),
		SessionID:   c.session.SessionID(),
	}
}

func (c *cardService) tokenizeGraphQL(ctx context.Context, card *ports.Card, cfg *domain.Configuration) (*domain.CardNonce, error) {
	body, err := encoding.EncodeJSONString(newGraphQLRequest(card, c.metadata()))
	if err != nil {
		return nil, err
	}

	resp, err := c.session.GraphQL().Post(ctx, body, cfg)
	if err != nil {
		return nil, err
	}

	var parsed graphQLResponse
	if err := redirect.DecodeJSON(resp, &parsed); err != nil {
		return nil, err
	}
	tokenized := parsed.Data.TokenizeCreditCard
	if tokenized == nil || tokenized.Token == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "GraphQL response contains no token")
	}

	cc := tokenized.CreditCard
	nonce := &domain.CardNonce{
		BaseNonce:       domain.BaseNonce{Value: tokenized.Token, Type: nonceType},
		CardType:        brandName(cc.BrandCode),
		LastFour:        cc.Last4,
		BIN:             cc.BIN,
		ExpirationMonth: cc.ExpirationMonth,
		ExpirationYear:  cc.ExpirationYear,
		CardholderName:  cc.CardholderName,
	}
	if len(cc.Last4) == 4 {
		nonce.LastTwo = cc.Last4[2:]
		nonce.Description = "ending in " + nonce.LastTwo
	}
	return nonce, nil
}

func (c *cardService) tokenizeREST(ctx context.Context, card *ports.Card, cfg *domain.Configuration) (*domain.CardNonce, error) {
	body, err := encoding.EncodeJSONString(newRESTRequest(card, c.metadata()))
	if err != nil {
		return nil, err
	}

	resp, err := c.session.Client().Post(ctx, tokenizePath, body, cfg)
	if err != nil {
		return nil, err
	}

	var parsed restResponse
	if err := redirect.DecodeJSON(resp, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.CreditCards) == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "tokenize response contains no credit card")
	}

	cc := parsed.CreditCards[0]
	return &domain.CardNonce{
		BaseNonce: domain.BaseNonce{
			Value:       cc.Nonce,
			Type:        cc.Type,
			Description: cc.Description,
			IsDefault:   cc.Default,
		},
		CardType:        cc.Details.CardType,
		LastTwo:         cc.Details.LastTwo,
		LastFour:        cc.Details.LastFour,
		BIN:             cc.Details.BIN,
		ExpirationMonth: cc.Details.ExpirationMonth,
		ExpirationYear:  cc.Details.ExpirationYear,
		CardholderName:  cc.Details.CardholderName,
	}, nil
}

func brandName(code string) string {
	if name, ok := brandNames[code]; ok {
		return name
	}
	return "Unknown"
}
