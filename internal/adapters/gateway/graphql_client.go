package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
	"go.uber.org/zap"
)

const (
	// GraphQLVersion is the API version pinned by this SDK
	GraphQLVersion = "2018-03-06"

	headerBraintreeVersion = "Braintree-Version"

	errorTypeUser          = "user_error"
	legacyCodeUnauthorized = "50000"

	messageInputInvalid = "Input is invalid."
)

// GraphQLClient posts GraphQL documents to the URL from remote configuration
type GraphQLClient struct {
	auth   domain.Authorization
	sender Sender
	pool   *AsyncPool
	logger *zap.Logger
}

var _ ports.GraphQLClient = (*GraphQLClient)(nil)

// NewGraphQLClient creates a GraphQL client
func NewGraphQLClient(auth domain.Authorization, sender Sender, pool *AsyncPool, logger *zap.Logger) *GraphQLClient {
	return &GraphQLClient{
		auth:   auth,
		sender: sender,
		pool:   pool,
		logger: logger,
	}
}

type graphQLEnvelope struct {
	Errors json.RawMessage `json:"errors"`
}

type graphQLErrorHead struct {
	Message    string `json:"message"`
	Extensions *struct {
		ErrorType  string `json:"errorType"`
		LegacyCode string `json:"legacyCode"`
	} `json:"extensions"`
}

// Post sends body to the GraphQL endpoint. A 200 response can still carry errors.
func (c *GraphQLClient) Post(ctx context.Context, body string, cfg *domain.Configuration) (string, error) {
	if cfg == nil || cfg.GraphQL.URL == "" {
		return "", domain.NewDomainError(domain.ErrorCodeConfigurationRequired,
			"GraphQL is not available: fetch configuration first")
	}
	if c.auth == nil {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAuthorization, "authorization is required")
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   cfg.GraphQL.URL,
		Body:   body,
	}
	req.AddHeader(headerAuthorization, "Bearer "+c.auth.Bearer())
	req.AddHeader(headerBraintreeVersion, GraphQLVersion)

	resp, err := c.sender.Send(ctx, HostGraphQL, req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return ParseResponse(resp)
	}

	if err := parseGraphQLErrors(resp); err != nil {
		c.logger.Debug("GraphQL response carried errors",
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		return "", err
	}
	return resp.Body, nil
}

// PostAsync runs Post on the async pool
func (c *GraphQLClient) PostAsync(ctx context.Context, body string, cfg *domain.Configuration, cb func(string, error)) {
	c.pool.Go(ctx, func(ctx context.Context) (string, error) {
		return c.Post(ctx, body, cfg)
	}, cb)
}

func parseGraphQLErrors(resp *Response) error {
	var envelope graphQLEnvelope
	if err := json.Unmarshal([]byte(resp.Body), &envelope); err != nil {
		return domain.WrapError(domain.ErrorCodeJSONParse, "GraphQL response is not valid JSON", err)
	}
	if len(envelope.Errors) == 0 || string(envelope.Errors) == "null" {
		return nil
	}

	var heads []graphQLErrorHead
	if err := json.Unmarshal(envelope.Errors, &heads); err != nil {
		return domain.WrapError(domain.ErrorCodeJSONParse, "GraphQL errors are malformed", err)
	}
	if len(heads) == 0 {
		return nil
	}

	first := heads[0]
	if first.Extensions == nil {
		return pkgerrors.NewGatewayError(resp.StatusCode, pkgerrors.CategoryUnexpected,
			"An unexpected error occurred", resp.Body)
	}

	switch {
	case first.Extensions.ErrorType == errorTypeUser:
		// Field details stay reachable through errors.As on the wrapped ErrorWithResponse
		gwErr := pkgerrors.NewGatewayError(resp.StatusCode, pkgerrors.CategoryAuthorization,
			messageInputInvalid, resp.Body)
		gwErr.Err = pkgerrors.ParseGraphQLErrorWithResponse(resp.StatusCode, resp.Body, envelope.Errors)
		return gwErr

	case first.Extensions.LegacyCode == legacyCodeUnauthorized:
		return pkgerrors.NewGatewayError(resp.StatusCode, pkgerrors.CategoryAuthorization,
			first.Message, resp.Body)

	default:
		return pkgerrors.ParseGraphQLErrorWithResponse(resp.StatusCode, resp.Body, envelope.Errors)
	}
}
