// Package sdk is the entry point for host applications. It builds one session over pinned
// transports, the configuration cache and the analytics queue, and exposes the payment
// method clients built on it.
package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/payment-sdk/internal/adapters/browserswitch"
	"github.com/kevin07696/payment-sdk/internal/adapters/database"
	"github.com/kevin07696/payment-sdk/internal/adapters/gateway"
	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/analytics"
	"github.com/kevin07696/payment-sdk/internal/services/card"
	"github.com/kevin07696/payment-sdk/internal/services/configuration"
	"github.com/kevin07696/payment-sdk/internal/services/paypal"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/sepa"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/internal/services/threedsecure"
	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"github.com/kevin07696/payment-sdk/pkg/shutdown"
	"go.uber.org/zap"
)

// callbackBuffer is the number of async callbacks queued before Execute blocks
const callbackBuffer = 64

// Options configures a Client. Only Authorization is required.
type Options struct {
	// Authorization is a tokenization key, client token or PayPal UAT
	Authorization string

	// ReturnURLScheme is the scheme registered for browser switch returns
	ReturnURLScheme string
	// IntegrationType is "custom" (default) or "dropin"
	IntegrationType string
	MerchantAppID   string
	MerchantAppName string
	// SessionID is generated when empty
	SessionID string

	// AnalyticsDBPath is the SQLite file backing the analytics queue; empty keeps it in memory
	AnalyticsDBPath        string
	AnalyticsBatchSize     int
	AnalyticsFlushInterval time.Duration

	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	RequestsPerSecond float64
	WorkerPoolSize    int

	// PEM bundles replacing the embedded certificates of one host; nil keeps the embedded bundle
	GatewayCertificates []byte
	GraphQLCertificates []byte
	APICertificates     []byte

	// HTTPClient replaces the pinned clients for every host
	HTTPClient HTTPClient
	// Launcher replaces the system browser launcher
	Launcher Launcher

	Timeouts *resilience.TimeoutConfig
	Logger   *zap.Logger
}

// Client owns every long-lived component of an SDK session
type Client struct {
	transport *gateway.Transport
	session   *session.Session
	analytics ports.AnalyticsQueue
	launcher  Launcher
	shutdown  *shutdown.Manager
	logger    *zap.Logger

	paypal       ports.PayPalService
	sepa         ports.SEPAService
	threeDSecure ports.ThreeDSecureService
	card         ports.CardService
}

// New builds a client. Components started before a failure are shut down before returning.
func New(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeouts := opts.Timeouts
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}

	auth, err := domain.ParseAuthorization(opts.Authorization)
	if err != nil {
		return nil, err
	}

	manager := shutdown.NewManager(logger)
	c, err := build(ctx, opts, auth, timeouts, manager, logger)
	if err != nil {
		shutdownCtx, cancel := timeouts.ShutdownContext(context.Background())
		defer cancel()
		if shutdownErr := manager.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("Failed to release partially built client", zap.Error(shutdownErr))
		}
		return nil, err
	}
	return c, nil
}

func build(
	ctx context.Context,
	opts Options,
	auth domain.Authorization,
	timeouts *resilience.TimeoutConfig,
	manager *shutdown.Manager,
	logger *zap.Logger,
) (*Client, error) {
	transport, err := newTransport(opts, logger)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, opts.AnalyticsDBPath, logger)
	if err != nil {
		return nil, err
	}
	// Registered first so it is closed last
	manager.RegisterCloser("analytics-store", store)
	manager.Register("transport", func(context.Context) error {
		transport.CloseIdleConnections()
		return nil
	})

	executor := gateway.NewSerialExecutor(callbackBuffer)
	manager.Register("callback-executor", executor.Close)

	poolSize := int64(opts.WorkerPoolSize)
	if poolSize < 1 {
		poolSize = gateway.DefaultPoolSize
	}
	pool := gateway.NewAsyncPool(poolSize, executor, logger)
	manager.Register("async-pool", pool.Close)

	client := gateway.NewAPIClient(gateway.DefaultAPIClientConfig(), auth, transport, pool, logger)
	analyticsClient := gateway.NewAPIClient(&gateway.APIClientConfig{HostKind: gateway.HostAPI}, auth, transport, pool, logger)
	graphQL := gateway.NewGraphQLClient(auth, transport, pool, logger)

	configCfg := configuration.DefaultConfig()
	configCfg.Timeouts = timeouts
	configService := configuration.NewConfigurationService(client, auth, configCfg, logger)

	queueCfg := analytics.DefaultQueueConfig()
	queueCfg.Timeouts = timeouts
	if opts.AnalyticsBatchSize > 0 {
		queueCfg.BatchSize = opts.AnalyticsBatchSize
	}
	if opts.AnalyticsFlushInterval > 0 {
		queueCfg.FlushInterval = opts.AnalyticsFlushInterval
	}
	queue := analytics.NewQueue(store, analytics.NewUploader(analyticsClient, auth, logger), configService, queueCfg, logger)
	manager.Register("analytics-queue", queue.Close)

	installationID, err := store.InstallationID(ctx)
	if err != nil {
		// Events are still recorded, only without the persistent device id
		logger.Warn("Failed to load installation id", zap.Error(err))
	}

	s, err := session.New(session.Dependencies{
		Authorization:  auth,
		Client:         client,
		GraphQL:        graphQL,
		Configuration:  configService,
		Analytics:      queue,
		Device:         analytics.CollectDeviceInfo(),
		InstallationID: installationID,
	}, &session.Config{
		ReturnURLScheme: opts.ReturnURLScheme,
		IntegrationType: opts.IntegrationType,
		MerchantAppID:   opts.MerchantAppID,
		MerchantAppName: opts.MerchantAppName,
		SessionID:       opts.SessionID,
		Timeouts:        timeouts,
	}, logger)
	if err != nil {
		return nil, err
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browserswitch.NewSystemLauncher(logger)
	}

	logger.Info("SDK client initialized",
		zap.String("authorization_type", string(auth.Kind())),
		zap.String("session_id", s.SessionID()),
		zap.String("integration_type", s.IntegrationType()),
		zap.Bool("persistent_analytics", opts.AnalyticsDBPath != ""),
	)

	return &Client{
		transport:    transport,
		session:      s,
		analytics:    queue,
		launcher:     launcher,
		shutdown:     manager,
		logger:       logger,
		paypal:       paypal.NewPayPalService(s, logger),
		sepa:         sepa.NewSEPAService(s, logger),
		threeDSecure: threedsecure.NewThreeDSecureService(s, logger),
		card:         card.NewCardService(s, logger),
	}, nil
}

func newTransport(opts Options, logger *zap.Logger) (*gateway.Transport, error) {
	cfg := gateway.DefaultTransportConfig()
	cfg.RequestsPerSecond = opts.RequestsPerSecond
	cfg.ConnectTimeout = opts.ConnectTimeout
	cfg.ReadTimeout = opts.ReadTimeout

	if opts.HTTPClient != nil {
		return gateway.NewTransport(cfg, map[gateway.HostKind]adapterports.HTTPClient{
			gateway.HostGateway: opts.HTTPClient,
		}, logger), nil
	}

	transport, err := gateway.NewPinnedTransport(cfg, gateway.PinningConfig{
		Bundles: map[gateway.HostKind][]byte{
			gateway.HostGateway: opts.GatewayCertificates,
			gateway.HostGraphQL: opts.GraphQLCertificates,
			gateway.HostAPI:     opts.APICertificates,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}
	return transport, nil
}

func openStore(ctx context.Context, path string, logger *zap.Logger) (adapterports.AnalyticsStore, error) {
	adapter, err := database.NewSQLiteAdapter(ctx, database.DefaultSQLiteConfig(path), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics store: %w", err)
	}
	return database.NewAnalyticsStore(adapter, logger), nil
}

// Configuration returns the merchant configuration, fetching it when the cache is cold
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	return c.session.Configuration(ctx)
}

// InvalidateConfiguration forces the next call to fetch a fresh configuration
func (c *Client) InvalidateConfiguration() {
	c.session.ConfigurationService().Invalidate()
}

func (c *Client) SessionID() string                       { return c.session.SessionID() }
func (c *Client) PayPal() ports.PayPalService             { return c.paypal }
func (c *Client) SEPADirectDebit() ports.SEPAService      { return c.sepa }
func (c *Client) ThreeDSecure() ports.ThreeDSecureService { return c.threeDSecure }
func (c *Client) Cards() ports.CardService                { return c.card }

// Launch opens the approval URL of a request that needs a browser switch.
// The returned pending request must be kept by the host until the return URI arrives.
func (c *Client) Launch(ctx context.Context, req *PaymentAuthRequest) (string, error) {
	if req == nil || !req.LaunchRequired || req.BrowserSwitch == nil {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidArgument, "request does not require a browser switch")
	}

	pending, err := browserswitch.EncodePendingRequest(req.BrowserSwitch)
	if err != nil {
		return "", err
	}
	if err := c.launcher.Launch(ctx, req.BrowserSwitch); err != nil {
		return "", err
	}

	c.session.SendAnalyticsEvent(string(req.Params.Method) + ".browser-switch.started")
	return pending, nil
}

// Complete turns a pending request and the return URI delivered to the host into a result.
// An empty returnURI means the user came back without completing the flow.
func (c *Client) Complete(pending, returnURI string) (BrowserSwitchResult, error) {
	opts, err := browserswitch.DecodePendingRequest(pending)
	if err != nil {
		return BrowserSwitchResult{}, err
	}
	if returnURI == "" {
		return browserswitch.Canceled(opts), nil
	}
	return browserswitch.Result(opts, returnURI)
}

// Tokenize finishes the flow the browser switch result belongs to
func (c *Client) Tokenize(ctx context.Context, result BrowserSwitchResult) Result {
	params, err := domain.DecodePaymentAuthRequestParams(result.Metadata)
	if err != nil {
		return domain.FailureResult(err)
	}

	switch params.Method {
	case domain.PaymentMethodPayPal:
		return c.paypal.Tokenize(ctx, result)
	case domain.PaymentMethodSEPA:
		return c.sepa.Tokenize(ctx, result)
	case domain.PaymentMethodThreeDSecure:
		return c.threeDSecure.Tokenize(ctx, result)
	default:
		return domain.FailureResult(domain.NewDomainError(domain.ErrorCodeBrowserSwitch,
			fmt.Sprintf("unknown payment method %q", params.Method)))
	}
}

// FlushAnalytics uploads every pending analytics event
func (c *Client) FlushAnalytics(ctx context.Context) error {
	return c.analytics.Flush(ctx)
}

// Close flushes analytics and stops background work. It is safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("Shutting down SDK client", zap.String("session_id", c.session.SessionID()))
	return c.shutdown.Shutdown(ctx)
}
