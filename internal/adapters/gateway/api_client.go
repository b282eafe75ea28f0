package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	"go.uber.org/zap"
)

const (
	headerClientKey     = "Client-Key"
	headerAuthorization = "Authorization"

	fingerprintKey = "authorizationFingerprint"
)

// APIClientConfig contains configuration for the client API client
type APIClientConfig struct {
	// HostKind selects the pinned client; analytics uploads use HostAPI
	HostKind HostKind
}

// DefaultAPIClientConfig returns default configuration for gateway calls
func DefaultAPIClientConfig() *APIClientConfig {
	return &APIClientConfig{HostKind: HostGateway}
}

// APIClient authenticates client API requests with the session's authorization
type APIClient struct {
	config *APIClientConfig
	auth   domain.Authorization
	sender Sender
	pool   *AsyncPool
	logger *zap.Logger
}

var _ ports.GatewayClient = (*APIClient)(nil)

// NewAPIClient creates an API client. pool may be nil when async calls are not used.
func NewAPIClient(cfg *APIClientConfig, auth domain.Authorization, sender Sender, pool *AsyncPool, logger *zap.Logger) *APIClient {
	return &APIClient{
		config: cfg,
		auth:   auth,
		sender: sender,
		pool:   pool,
		logger: logger,
	}
}

// Get sends an authenticated GET. Client tokens add the fingerprint as a query parameter.
func (c *APIClient) Get(ctx context.Context, path string, cfg *domain.Configuration) (string, error) {
	req, err := c.newRequest(http.MethodGet, path, cfg)
	if err != nil {
		return "", err
	}

	if ct, ok := c.auth.(*domain.ClientToken); ok {
		target, err := req.URL()
		if err != nil {
			return "", err
		}
		u, err := url.Parse(target)
		if err != nil {
			return "", domain.WrapError(domain.ErrorCodeInvalidArgument, "invalid request URL", err)
		}
		q := u.Query()
		q.Set(fingerprintKey, ct.AuthorizationFingerprint())
		u.RawQuery = q.Encode()
		req.Path = u.String()
	}

	return c.send(ctx, req)
}

// Post sends an authenticated POST. Client tokens merge the fingerprint into the JSON body.
func (c *APIClient) Post(ctx context.Context, path, body string, cfg *domain.Configuration) (string, error) {
	req, err := c.newRequest(http.MethodPost, path, cfg)
	if err != nil {
		return "", err
	}

	req.Body = body
	if ct, ok := c.auth.(*domain.ClientToken); ok {
		merged, err := encoding.MergeField(body, fingerprintKey, ct.AuthorizationFingerprint())
		if err != nil {
			return "", domain.WrapError(domain.ErrorCodeJSONParse, "request body must be a JSON object", err)
		}
		req.Body = merged
	}

	return c.send(ctx, req)
}

// GetAsync runs Get on the async pool
func (c *APIClient) GetAsync(ctx context.Context, path string, cfg *domain.Configuration, cb func(string, error)) {
	c.pool.Go(ctx, func(ctx context.Context) (string, error) {
		return c.Get(ctx, path, cfg)
	}, cb)
}

// PostAsync runs Post on the async pool
func (c *APIClient) PostAsync(ctx context.Context, path, body string, cfg *domain.Configuration, cb func(string, error)) {
	c.pool.Go(ctx, func(ctx context.Context) (string, error) {
		return c.Post(ctx, path, body, cfg)
	}, cb)
}

// newRequest validates the path and attaches auth headers. No I/O happens here.
func (c *APIClient) newRequest(method, path string, cfg *domain.Configuration) (*Request, error) {
	if path == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, domain.MessagePathRequired)
	}
	if c.auth == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidAuthorization, "authorization is required")
	}

	req := &Request{Method: method, Path: path}
	if cfg != nil {
		req.BaseURL = cfg.ClientAPIURL
	}
	if !isAbsolute(path) && req.BaseURL == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigurationRequired, domain.MessageBaseURLRequired).
			WithDetail("path", path)
	}

	switch c.auth.Kind() {
	case domain.AuthorizationTokenizationKey:
		req.AddHeader(headerClientKey, c.auth.Bearer())
	case domain.AuthorizationPayPalUAT:
		req.AddHeader(headerAuthorization, "Bearer "+c.auth.Bearer())
	}
	return req, nil
}

func (c *APIClient) send(ctx context.Context, req *Request) (string, error) {
	resp, err := c.sender.Send(ctx, c.config.HostKind, req)
	if err != nil {
		return "", err
	}

	body, err := ParseResponse(resp)
	if err != nil {
		c.logger.Debug("Gateway returned an error status",
			zap.String("method", req.Method),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		return "", err
	}
	return body, nil
}
