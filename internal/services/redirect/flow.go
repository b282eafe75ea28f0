// Package redirect implements the browser switch state machine shared by PayPal, SEPA Direct Debit
// and 3D Secure. Each payment method supplies a Definition; the flow owns correlation and validation.
package redirect

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/pkg/observability"
	"go.uber.org/zap"
)

// ReturnURLs are the deep links the external browser returns to
type ReturnURLs struct {
	Success string
	Cancel  string
}

// Definition parameterizes the flow for one payment method
type Definition struct {
	Method domain.PaymentMethod
	// Enabled reports whether configuration allows the method; nil means always enabled
	Enabled    func(cfg *domain.Configuration) bool
	CreatePath string
	// ReturnPath is templated into <scheme>://<ReturnPath>/{success,cancel}
	ReturnPath string
	// TokenKey is the query parameter carrying the correlation token on both URLs
	TokenKey string

	// ParseCreate extracts the approval URL and any values the tokenize step needs.
	// An empty or "null" approval URL means no browser switch is required.
	ParseCreate func(body string, cfg *domain.Configuration, urls ReturnURLs) (approvalURL string, extras map[string]string, err error)
	// BuildTokenize returns the tokenize request for a validated return URL
	BuildTokenize func(params *domain.PaymentAuthRequestParams, returnURL string) (path, body string, err error)
	// TokenizeDirect builds the tokenize request when no launch was needed.
	// When nil the creation response is parsed as the result.
	TokenizeDirect func(params *domain.PaymentAuthRequestParams, createResponse string) (path, body string, err error)
	ParseResult    func(body string) (domain.PaymentMethodNonce, error)
}

// BodyBuilder produces the creation request body once configuration and return URLs are known
type BodyBuilder func(cfg *domain.Configuration, urls ReturnURLs) (string, error)

// Params are per-request values carried through the browser switch
type Params struct {
	// CreatePath overrides Definition.CreatePath when the endpoint depends on the request
	CreatePath        string
	ClientMetadataID  string
	MerchantAccountID string
	Intent            string
}

// Flow runs the create → switch → validate → tokenize state machine
type Flow struct {
	session *session.Session
	logger  *zap.Logger
}

// NewFlow creates a flow bound to a session
func NewFlow(s *session.Session, logger *zap.Logger) *Flow {
	return &Flow{
		session: s,
		logger:  logger,
	}
}

// CreatePaymentAuthRequest asks the gateway for an approval URL and packages everything the
// return leg needs into browser switch metadata.
func (f *Flow) CreatePaymentAuthRequest(ctx context.Context, def *Definition, build BodyBuilder, params Params) (*domain.PaymentAuthRequest, error) {
	method := string(def.Method)
	f.session.SendAnalyticsEvent(method + ".request.started")

	cfg, err := f.session.Configuration(ctx)
	if err != nil {
		return nil, f.createFailed(def, fmt.Errorf("failed to fetch configuration: %w", err))
	}
	if def.Enabled != nil && !def.Enabled(cfg) {
		return nil, f.createFailed(def, domain.ErrFeatureNotEnabled(method))
	}

	urls, err := f.returnURLs(def)
	if err != nil {
		return nil, f.createFailed(def, err)
	}

	body, err := build(cfg, urls)
	if err != nil {
		return nil, f.createFailed(def, err)
	}

	createPath := def.CreatePath
	if params.CreatePath != "" {
		createPath = params.CreatePath
	}

	reqCtx, cancel := f.session.Timeouts().TokenizeContext(ctx)
	defer cancel()

	resp, err := f.session.Client().Post(reqCtx, createPath, body, cfg)
	if err != nil {
		return nil, f.createFailed(def, err)
	}

	approvalURL, extras, err := def.ParseCreate(resp, cfg, urls)
	if err != nil {
		return nil, f.createFailed(def, err)
	}

	authParams := domain.PaymentAuthRequestParams{
		Method:            def.Method,
		ApprovalURL:       approvalURL,
		SuccessURL:        urls.Success,
		CancelURL:         urls.Cancel,
		TokenKey:          def.TokenKey,
		ClientMetadataID:  params.ClientMetadataID,
		MerchantAccountID: params.MerchantAccountID,
		Intent:            params.Intent,
		Extras:            extras,
	}

	if approvalURL == "" || approvalURL == "null" {
		authParams.ApprovalURL = ""
		f.logger.Debug("Gateway approved request without browser switch",
			zap.String("method", method),
		)
		f.session.SendAnalyticsEvent(method + ".browser-switch.not-required")
		return &domain.PaymentAuthRequest{
			LaunchRequired: false,
			Params:         authParams,
			CreateResponse: resp,
		}, nil
	}

	token, err := correlationToken(approvalURL, def.TokenKey)
	if err != nil {
		return nil, f.createFailed(def, err)
	}
	authParams.Token = token

	metadata, err := authParams.Encode()
	if err != nil {
		return nil, f.createFailed(def, err)
	}

	f.session.SendAnalyticsEvent(method + ".browser-switch.ready")
	return &domain.PaymentAuthRequest{
		LaunchRequired: true,
		BrowserSwitch: &domain.BrowserSwitchOptions{
			URL:             approvalURL,
			ReturnURLScheme: f.session.ReturnURLScheme(),
			Metadata:        metadata,
		},
		Params:         authParams,
		CreateResponse: resp,
	}, nil
}

// Tokenize validates a browser switch return against its own metadata and exchanges it for a nonce
func (f *Flow) Tokenize(ctx context.Context, def *Definition, result domain.BrowserSwitchResult) domain.Result {
	if result.Status == domain.BrowserSwitchCanceled {
		return f.finish(def, domain.CancelResult(domain.ErrUserCanceled()))
	}

	params, err := domain.DecodePaymentAuthRequestParams(result.Metadata)
	if err != nil {
		return f.finish(def, domain.FailureResult(err))
	}
	if params.Method != def.Method {
		return f.finish(def, domain.FailureResult(domain.NewDomainError(domain.ErrorCodeBrowserSwitch,
			fmt.Sprintf("browser switch result belongs to %s, not %s", params.Method, def.Method))))
	}

	if err := Validate(params, def.TokenKey, result.ReturnURL); err != nil {
		if domain.IsUserCanceled(err) {
			return f.finish(def, domain.CancelResult(err))
		}
		f.logger.Warn("Rejected browser switch return",
			zap.String("method", string(def.Method)),
			zap.Error(err),
		)
		return f.finish(def, domain.FailureResult(err))
	}

	path, body, err := def.BuildTokenize(params, result.ReturnURL)
	if err != nil {
		return f.finish(def, domain.FailureResult(err))
	}
	return f.finish(def, f.tokenize(ctx, def, path, body))
}

// TokenizeWithoutLaunch completes a request the gateway approved during creation
func (f *Flow) TokenizeWithoutLaunch(ctx context.Context, def *Definition, req *domain.PaymentAuthRequest) domain.Result {
	if req == nil || req.LaunchRequired {
		return f.finish(def, domain.FailureResult(domain.NewDomainError(domain.ErrorCodeInvalidArgument,
			"request requires a browser switch before it can be tokenized")))
	}

	if def.TokenizeDirect == nil {
		nonce, err := def.ParseResult(req.CreateResponse)
		if err != nil {
			return f.finish(def, domain.FailureResult(err))
		}
		return f.finish(def, domain.SuccessResult(nonce))
	}

	path, body, err := def.TokenizeDirect(&req.Params, req.CreateResponse)
	if err != nil {
		return f.finish(def, domain.FailureResult(err))
	}
	return f.finish(def, f.tokenize(ctx, def, path, body))
}

func (f *Flow) tokenize(ctx context.Context, def *Definition, path, body string) domain.Result {
	cfg, err := f.session.Configuration(ctx)
	if err != nil {
		return domain.FailureResult(fmt.Errorf("failed to fetch configuration: %w", err))
	}

	reqCtx, cancel := f.session.Timeouts().TokenizeContext(ctx)
	defer cancel()

	resp, err := f.session.Client().Post(reqCtx, path, body, cfg)
	if err != nil {
		return domain.FailureResult(err)
	}

	nonce, err := def.ParseResult(resp)
	if err != nil {
		return domain.FailureResult(err)
	}
	observability.RecordTokenization(nonce.PaymentType(), "rest")
	return domain.SuccessResult(nonce)
}

func (f *Flow) returnURLs(def *Definition) (ReturnURLs, error) {
	success, err := f.session.ReturnURL(def.ReturnPath + "/success")
	if err != nil {
		return ReturnURLs{}, err
	}
	cancel, err := f.session.ReturnURL(def.ReturnPath + "/cancel")
	if err != nil {
		return ReturnURLs{}, err
	}
	return ReturnURLs{Success: success, Cancel: cancel}, nil
}

func (f *Flow) createFailed(def *Definition, err error) error {
	f.session.SendAnalyticsEvent(string(def.Method) + ".request.failed")
	f.logger.Warn("Failed to create payment auth request",
		zap.String("method", string(def.Method)),
		zap.Error(err),
	)
	return err
}

func (f *Flow) finish(def *Definition, result domain.Result) domain.Result {
	method := string(def.Method)

	var outcome string
	switch result.Status {
	case domain.ResultSuccess:
		outcome = "succeeded"
	case domain.ResultCancel:
		outcome = "canceled"
	default:
		outcome = "failed"
	}

	observability.RecordRedirectResult(method, outcome)
	f.session.SendAnalyticsEvent(method + ".browser-switch." + outcome)
	return result
}

// Validate checks a return URL against the request that produced it.
// A wrong last path segment is a user cancel; a missing or different correlation token is
// INCONSISTENT_DATA. An absent expected token never validates.
func Validate(params *domain.PaymentAuthRequestParams, tokenKey, returnURL string) error {
	returned, err := url.Parse(returnURL)
	if err != nil || returnURL == "" {
		return domain.WrapError(domain.ErrorCodeBrowserSwitch, "browser switch return URL is not a valid URL", err)
	}
	success, err := url.Parse(params.SuccessURL)
	if err != nil || params.SuccessURL == "" {
		return domain.ErrInconsistentData()
	}

	if lastSegment(returned) != lastSegment(success) {
		return domain.ErrUserCanceled()
	}

	expected, err := correlationToken(params.ApprovalURL, tokenKey)
	if err != nil {
		return domain.ErrInconsistentData()
	}
	actual := returned.Query().Get(tokenKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) != 1 {
		return domain.ErrInconsistentData()
	}
	return nil
}

// lastSegment treats the host as the only segment of scheme://success style URLs
func lastSegment(u *url.URL) string {
	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		return u.Host
	}
	return path[strings.LastIndex(path, "/")+1:]
}

func correlationToken(approvalURL, key string) (string, error) {
	u, err := url.Parse(approvalURL)
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeInconsistentData, "approval URL is not a valid URL", err)
	}
	token := u.Query().Get(key)
	if token == "" {
		return "", domain.NewDomainError(domain.ErrorCodeInconsistentData,
			fmt.Sprintf("approval URL carries no %s parameter", key))
	}
	return token, nil
}
