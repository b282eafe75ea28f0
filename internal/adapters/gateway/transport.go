package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
	pkghttp "github.com/kevin07696/payment-sdk/pkg/http"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HostKind selects the pinned client used for a request
type HostKind string

const (
	HostGateway HostKind = "gateway"
	HostGraphQL HostKind = "graphql"
	HostAPI     HostKind = "api"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 10 << 20

// Header is one request header; order is preserved
type Header struct {
	Name  string
	Value string
}

// Request is a single gateway request.
// Path may be absolute; a relative path requires BaseURL.
type Request struct {
	Method  string
	Path    string
	BaseURL string
	Body    string
	Headers []Header
}

// URL resolves the request target without performing any I/O
func (r *Request) URL() (string, error) {
	if r.Path == "" {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidArgument, domain.MessagePathRequired)
	}
	if isAbsolute(r.Path) {
		return r.Path, nil
	}
	if r.BaseURL == "" {
		return "", domain.NewDomainError(domain.ErrorCodeConfigurationRequired, domain.MessageBaseURLRequired).
			WithDetail("path", r.Path)
	}
	return strings.TrimSuffix(r.BaseURL, "/") + "/" + strings.TrimPrefix(r.Path, "/"), nil
}

// AddHeader appends a header
func (r *Request) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Response is the raw gateway response; status mapping happens in ParseResponse
type Response struct {
	StatusCode int
	Body       string
}

// Sender sends requests to a host kind
type Sender interface {
	Send(ctx context.Context, kind HostKind, req *Request) (*Response, error)
}

// TransportConfig contains configuration for the gateway transport
type TransportConfig struct {
	UserAgent string

	// RequestsPerSecond limits outgoing requests across all host kinds (0 = unlimited)
	RequestsPerSecond float64
	Burst             int

	// Host kinds whose failures trip a circuit breaker
	BreakerKinds  []HostKind
	BreakerConfig CircuitBreakerConfig

	// Zero keeps the pkg/http defaults. ReadTimeout bounds the wait for
	// response headers and, separately, the read of the response body.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultTransportConfig returns default configuration for the transport
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		UserAgent:     fmt.Sprintf("braintree/%s/%s", domain.SDKPlatform, domain.SDKVersion),
		Burst:         1,
		BreakerKinds:  []HostKind{HostAPI},
		BreakerConfig: DefaultCircuitBreakerConfig(),
	}
}

// PinningConfig holds PEM bundles that replace the embedded bundle of a host kind
type PinningConfig struct {
	Bundles map[HostKind][]byte
}

// Transport performs HTTP requests for the API and GraphQL clients
type Transport struct {
	config   *TransportConfig
	clients  map[HostKind]ports.HTTPClient
	breakers map[HostKind]*CircuitBreaker
	limiter  *rate.Limiter

	// readTimeout bounds reading a response body once headers have arrived
	readTimeout time.Duration
	logger      *zap.Logger
}

// NewTransport creates a transport over pre-built clients, one per host kind.
// A kind without its own client falls back to the HostGateway client.
func NewTransport(cfg *TransportConfig, clients map[HostKind]ports.HTTPClient, logger *zap.Logger) *Transport {
	t := &Transport{
		config:      cfg,
		clients:     clients,
		breakers:    make(map[HostKind]*CircuitBreaker),
		readTimeout: cfg.ReadTimeout,
		logger:      logger,
	}
	if t.readTimeout <= 0 {
		t.readTimeout = pkghttp.GatewayClientConfig().ReadTimeout
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, kind := range cfg.BreakerKinds {
		t.breakers[kind] = NewCircuitBreaker(cfg.BreakerConfig)
	}

	return t
}

// NewPinnedTransport builds one pinned HTTP client per host kind.
// Kinds without an override use the embedded bundle; a kind with neither fails construction.
func NewPinnedTransport(cfg *TransportConfig, pinning PinningConfig, logger *zap.Logger) (*Transport, error) {
	clients := make(map[HostKind]ports.HTTPClient, 3)
	for _, kind := range []HostKind{HostGateway, HostGraphQL, HostAPI} {
		httpCfg := pkghttp.GatewayClientConfig()
		if kind == HostAPI {
			httpCfg = pkghttp.AnalyticsClientConfig()
		}
		if cfg.ConnectTimeout > 0 {
			httpCfg.ConnectTimeout = cfg.ConnectTimeout
		}
		if cfg.ReadTimeout > 0 {
			httpCfg.ReadTimeout = cfg.ReadTimeout
		}

		bundle := pinning.Bundles[kind]
		source := "override"
		if len(bundle) == 0 {
			bundle = EmbeddedCertificates(kind)
			source = "embedded"
		}

		client, err := pkghttp.NewPinnedClient(httpCfg, bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s client: %w", kind, err)
		}
		logger.Debug("Pinned certificates loaded",
			zap.String("host_kind", string(kind)),
			zap.String("source", source),
		)
		clients[kind] = client
	}

	return NewTransport(cfg, clients, logger), nil
}

// Client returns the HTTP client used for kind, or nil when none is configured
func (t *Transport) Client(kind HostKind) ports.HTTPClient {
	return t.clients[kind]
}

// CloseIdleConnections releases pooled connections of every client that supports it
func (t *Transport) CloseIdleConnections() {
	for _, client := range t.clients {
		if c, ok := client.(interface{ CloseIdleConnections() }); ok {
			c.CloseIdleConnections()
		}
	}
}

// Send performs the request. A non-2xx status is not an error here.
// Errors are either domain errors raised before I/O or GatewayErrors with
// the timeout or network category.
func (t *Transport) Send(ctx context.Context, kind HostKind, req *Request) (*Response, error) {
	target, err := req.URL()
	if err != nil {
		return nil, err
	}

	client, ok := t.clients[kind]
	if !ok {
		client, ok = t.clients[HostGateway]
	}
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigurationRequired,
			fmt.Sprintf("no HTTP client configured for %s requests", kind))
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.NewTransportError(pkgerrors.CategoryTimeout, "rate limiter wait aborted", err)
		}
	}

	breaker := t.breakers[kind]
	if breaker == nil {
		return t.do(ctx, client, kind, req, target)
	}

	var resp *Response
	err = breaker.Call(func() error {
		var sendErr error
		resp, sendErr = t.do(ctx, client, kind, req, target)
		if sendErr != nil {
			return sendErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return nil
	})
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return nil, pkgerrors.NewTransportError(pkgerrors.CategoryNetworkError,
			fmt.Sprintf("%s requests suspended after repeated failures", kind), err)
	}
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

func (t *Transport) do(ctx context.Context, client ports.HTTPClient, kind HostKind, req *Request, target string) (*Response, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, target, body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInvalidArgument, "failed to build request", err)
	}

	httpReq.Header.Set("User-Agent", t.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	logFields := []zap.Field{
		zap.String("host_kind", string(kind)),
		zap.String("method", req.Method),
		zap.String("host", httpReq.URL.Host),
		zap.String("path", httpReq.URL.Path),
	}

	done := observability.TrackHTTPRequest(string(kind))
	start := time.Now()

	httpResp, err := client.Do(httpReq)
	if err != nil {
		gwErr := classifyTransportError(err)
		done(0, string(gwErr.Category))
		t.logger.Warn("Gateway request failed",
			append(logFields, zap.Duration("elapsed", time.Since(start)), zap.Error(err))...,
		)
		return nil, gwErr
	}
	defer httpResp.Body.Close()

	// The client's header timeout stops applying once headers arrive
	bodyDeadline := time.AfterFunc(t.readTimeout, cancel)
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	bodyDeadline.Stop()
	if err != nil {
		gwErr := classifyTransportError(err)
		if reqCtx.Err() != nil && ctx.Err() == nil {
			gwErr = pkgerrors.NewTransportError(pkgerrors.CategoryTimeout, "response body read timed out", err)
		}
		done(0, string(gwErr.Category))
		t.logger.Warn("Failed to read gateway response",
			append(logFields, zap.Int("status_code", httpResp.StatusCode), zap.Error(err))...,
		)
		return nil, gwErr
	}

	done(httpResp.StatusCode, "")
	t.logger.Debug("Gateway request completed",
		append(logFields,
			zap.Int("status_code", httpResp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)...,
	)

	return &Response{StatusCode: httpResp.StatusCode, Body: string(respBody)}, nil
}

func classifyTransportError(err error) *pkgerrors.GatewayError {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTransportError(pkgerrors.CategoryTimeout, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.NewTransportError(pkgerrors.CategoryTimeout, "request timed out", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return pkgerrors.NewTransportError(pkgerrors.CategoryTimeout, "request timed out", err)
	}

	return pkgerrors.NewTransportError(pkgerrors.CategoryNetworkError, "request failed", err)
}
