// Command sdk-harness drives the SDK the way a host application would: it fetches the
// merchant configuration, starts and completes PayPal checkouts and flushes analytics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kevin07696/payment-sdk/internal/config"
	"github.com/kevin07696/payment-sdk/internal/domain"
	pkghttp "github.com/kevin07696/payment-sdk/pkg/http"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"github.com/kevin07696/payment-sdk/pkg/resilience"
	"github.com/kevin07696/payment-sdk/pkg/sdk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: sdk-harness [options] <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  config                         - Fetch and print the merchant configuration")
	fmt.Fprintln(os.Stderr, "  paypal-checkout <amount>       - Start a PayPal checkout and print the pending request")
	fmt.Fprintln(os.Stderr, "  complete <pending> <returnURI> - Validate a return URI and tokenize it")
	fmt.Fprintln(os.Stderr, "  flush                          - Upload pending analytics events")
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
}

func main() {
	var (
		envFile  = flag.String("env", ".env", "Optional env file loaded before the environment")
		currency = flag.String("currency", "", "Currency for paypal-checkout (default: merchant currency)")
		intent   = flag.String("intent", "", "PayPal intent: authorize, sale or order")
		commit   = flag.Bool("commit", false, "Show the PayPal Pay Now button")
		open     = flag.Bool("open", false, "Open the approval URL in the system browser")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := &harness{
		out:    os.Stdout,
		logger: logger,
		checkout: checkoutFlags{
			currency: *currency,
			intent:   *intent,
			commit:   *commit,
		},
	}
	if err := h.run(ctx, cfg, *open, args); err != nil {
		logger.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

// initLogger builds a production logger in production and a development logger otherwise
func initLogger(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Logger.Level); err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Environment == "production" && !cfg.Logger.Development {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zapCfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// stdout carries command output
	zapCfg.OutputPaths = []string{"stderr"}
	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

type checkoutFlags struct {
	currency string
	intent   string
	commit   bool
}

type harness struct {
	out      io.Writer
	logger   *zap.Logger
	checkout checkoutFlags

	// Overrides the transport in tests
	httpClient sdk.HTTPClient
}

func (h *harness) run(ctx context.Context, cfg *config.Config, openBrowser bool, args []string) error {
	authorization, err := resolveAuthorization(ctx, cfg, h.logger)
	if err != nil {
		return err
	}

	opts, err := h.sdkOptions(cfg, authorization)
	if err != nil {
		return err
	}
	if !openBrowser {
		opts.Launcher = logLauncher{logger: h.logger}
	}

	client, err := sdk.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize SDK: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := opts.Timeouts.ShutdownContext(context.Background())
		defer cancel()
		if err := client.Close(shutdownCtx); err != nil {
			h.logger.Warn("SDK shutdown incomplete", zap.Error(err))
		}
	}()

	if cfg.Metrics.Port > 0 {
		server := startMetrics(cfg.Metrics.Port, client, h.logger)
		defer func() {
			if err := observability.ShutdownMetricsServer(server); err != nil {
				h.logger.Warn("Failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	switch args[0] {
	case "config":
		return h.printConfiguration(ctx, client)
	case "paypal-checkout":
		if len(args) != 2 {
			return errors.New("paypal-checkout requires an amount")
		}
		return h.payPalCheckout(ctx, client, args[1])
	case "complete":
		if len(args) != 3 {
			return errors.New("complete requires a pending request and a return URI")
		}
		return h.complete(ctx, client, args[1], args[2])
	case "flush":
		if err := client.FlushAnalytics(ctx); err != nil {
			return fmt.Errorf("failed to flush analytics: %w", err)
		}
		fmt.Fprintln(h.out, "analytics flushed")
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (h *harness) sdkOptions(cfg *config.Config, authorization string) (sdk.Options, error) {
	opts := sdk.Options{
		Authorization:          authorization,
		ReturnURLScheme:        cfg.Session.ReturnURLScheme,
		IntegrationType:        cfg.Session.IntegrationType,
		MerchantAppID:          cfg.Session.MerchantAppID,
		MerchantAppName:        cfg.Session.MerchantAppName,
		AnalyticsDBPath:        cfg.Analytics.DBPath,
		AnalyticsBatchSize:     cfg.Analytics.BatchSize,
		AnalyticsFlushInterval: cfg.Analytics.FlushInterval,
		ConnectTimeout:         cfg.HTTP.ConnectTimeout,
		ReadTimeout:            cfg.HTTP.ReadTimeout,
		RequestsPerSecond:      cfg.HTTP.RequestsPerSecond,
		WorkerPoolSize:         cfg.HTTP.WorkerPoolSize,
		HTTPClient:             h.httpClient,
		Timeouts:               resilience.DefaultTimeoutConfig(),
		Logger:                 h.logger,
	}

	bundles := []struct {
		path   string
		target *[]byte
	}{
		{cfg.HTTP.GatewayCAFile, &opts.GatewayCertificates},
		{cfg.HTTP.GraphQLCAFile, &opts.GraphQLCertificates},
		{cfg.HTTP.APICAFile, &opts.APICertificates},
	}
	for _, b := range bundles {
		if b.path == "" {
			continue
		}
		pem, err := pkghttp.LoadPEMBundle(b.path)
		if err != nil {
			return sdk.Options{}, err
		}
		*b.target = pem
	}
	return opts, nil
}

func startMetrics(port int, client *sdk.Client, logger *zap.Logger) *http.Server {
	health := observability.NewHealthChecker()
	health.Register("configuration", func(ctx context.Context) error {
		_, err := client.Configuration(ctx)
		return err
	})
	return observability.StartMetricsServer(strconv.Itoa(port), health, logger)
}

func (h *harness) printConfiguration(ctx context.Context, client *sdk.Client) error {
	cfg, err := client.Configuration(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch configuration: %w", err)
	}
	return h.printJSON(json.RawMessage(cfg.Raw()))
}

func (h *harness) payPalCheckout(ctx context.Context, client *sdk.Client, amount string) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	req := &sdk.PayPalCheckoutRequest{
		Amount:       value,
		CurrencyCode: h.checkout.currency,
		Intent:       h.checkout.intent,
	}
	if h.checkout.commit {
		req.UserAction = "commit"
	}

	authRequest, err := client.PayPal().CreateCheckoutRequest(ctx, req)
	if err != nil {
		return err
	}
	if !authRequest.LaunchRequired {
		return errors.New("PayPal returned a checkout that needs no approval")
	}

	pending, err := client.Launch(ctx, authRequest)
	if err != nil {
		return err
	}
	return h.printJSON(map[string]string{
		"approvalUrl": authRequest.BrowserSwitch.URL,
		"pending":     pending,
	})
}

func (h *harness) complete(ctx context.Context, client *sdk.Client, pending, returnURI string) error {
	result, err := client.Complete(pending, returnURI)
	if err != nil {
		return err
	}
	return h.printResult(client.Tokenize(ctx, result))
}

type resultOutput struct {
	Status string                 `json:"status"`
	Nonce  sdk.PaymentMethodNonce `json:"nonce,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Code   string                 `json:"code,omitempty"`
}

func (h *harness) printResult(result sdk.Result) error {
	out := resultOutput{Status: string(result.Status), Nonce: result.Nonce}
	if result.Err != nil {
		out.Error = result.Err.Error()
		out.Code = string(domain.GetErrorCode(result.Err))
	}
	if err := h.printJSON(out); err != nil {
		return err
	}
	if result.Status == sdk.ResultFailure {
		return result.Err
	}
	return nil
}

func (h *harness) printJSON(v interface{}) error {
	enc := json.NewEncoder(h.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// logLauncher logs the approval URL instead of opening a browser
type logLauncher struct {
	logger *zap.Logger
}

func (l logLauncher) Launch(_ context.Context, opts *domain.BrowserSwitchOptions) error {
	l.logger.Info("Open the approval URL in a browser", zap.String("url", opts.URL))
	return nil
}
