// Package paypal implements PayPal checkout and vault on the shared redirect flow.
package paypal

import (
	"context"
	"net/url"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/redirect"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	"go.uber.org/zap"
)

const (
	checkoutPath = "/v1/paypal_hermes/create_payment_resource"
	vaultPath    = "/v1/paypal_hermes/setup_billing_agreement"
	tokenizePath = "/v1/payment_methods/paypal_accounts"
	returnPath   = "onetouch/v1"

	checkoutTokenKey = "token"
	vaultTokenKey    = "ba_token"

	defaultIntent = "authorize"
)

// paypalService implements the PayPalService port
type paypalService struct {
	session *session.Session
	flow    *redirect.Flow
	logger  *zap.Logger
}

// NewPayPalService creates a new PayPal service
func NewPayPalService(s *session.Session, logger *zap.Logger) ports.PayPalService {
	return &paypalService{
		session: s,
		flow:    redirect.NewFlow(s, logger),
		logger:  logger,
	}
}

// CreateCheckoutRequest creates a payment resource for a one-time payment
func (p *paypalService) CreateCheckoutRequest(ctx context.Context, req *ports.PayPalCheckoutRequest) (*domain.PaymentAuthRequest, error) {
	if req == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "checkout request is required")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "amount must be greater than zero").
			WithDetail("amount", req.Amount.String())
	}

	intent := req.Intent
	if intent == "" {
		intent = defaultIntent
	}
	cmid := p.session.ClientMetadataID(req.ClientMetadataID)

	build := func(cfg *domain.Configuration, urls redirect.ReturnURLs) (string, error) {
		body := newCreateBody(&req.PayPalRequest, cfg, urls, cmid)
		body.Amount = req.Amount.StringFixed(2)
		body.CurrencyISOCode = req.CurrencyCode
		if body.CurrencyISOCode == "" {
			body.CurrencyISOCode = cfg.PayPal.CurrencyIsoCode
		}
		body.Intent = intent
		return encoding.EncodeJSONString(body)
	}

	return p.flow.CreatePaymentAuthRequest(ctx, p.checkoutDefinition(req.UserAction), build, redirect.Params{
		ClientMetadataID:  cmid,
		MerchantAccountID: req.MerchantAccountID,
		Intent:            intent,
	})
}

// CreateVaultRequest sets up a billing agreement
func (p *paypalService) CreateVaultRequest(ctx context.Context, req *ports.PayPalVaultRequest) (*domain.PaymentAuthRequest, error) {
	if req == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "vault request is required")
	}
	cmid := p.session.ClientMetadataID(req.ClientMetadataID)

	build := func(cfg *domain.Configuration, urls redirect.ReturnURLs) (string, error) {
		body := newCreateBody(&req.PayPalRequest, cfg, urls, cmid)
		body.Description = req.BillingAgreementDescription
		return encoding.EncodeJSONString(body)
	}

	return p.flow.CreatePaymentAuthRequest(ctx, p.vaultDefinition(), build, redirect.Params{
		ClientMetadataID:  cmid,
		MerchantAccountID: req.MerchantAccountID,
	})
}

// Tokenize validates the PayPal return and exchanges it for a PayPal account nonce
func (p *paypalService) Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result {
	def := p.checkoutDefinition("")
	if params, err := domain.DecodePaymentAuthRequestParams(result.Metadata); err == nil && params.TokenKey == vaultTokenKey {
		def = p.vaultDefinition()
	}
	return p.flow.Tokenize(ctx, def, result)
}

func (p *paypalService) checkoutDefinition(userAction string) *redirect.Definition {
	return &redirect.Definition{
		Method:     domain.PaymentMethodPayPal,
		Enabled:    payPalEnabled,
		CreatePath: checkoutPath,
		ReturnPath: returnPath,
		TokenKey:   checkoutTokenKey,
		ParseCreate: func(body string, _ *domain.Configuration, _ redirect.ReturnURLs) (string, map[string]string, error) {
			var resp paymentResourceResponse
			if err := redirect.DecodeJSON(body, &resp); err != nil {
				return "", nil, err
			}
			approval, err := withUserAction(resp.PaymentResource.RedirectURL, userAction)
			return approval, nil, err
		},
		BuildTokenize: buildTokenize,
		ParseResult:   parseAccountNonce,
	}
}

func (p *paypalService) vaultDefinition() *redirect.Definition {
	return &redirect.Definition{
		Method:     domain.PaymentMethodPayPal,
		Enabled:    payPalEnabled,
		CreatePath: vaultPath,
		ReturnPath: returnPath,
		TokenKey:   vaultTokenKey,
		ParseCreate: func(body string, _ *domain.Configuration, _ redirect.ReturnURLs) (string, map[string]string, error) {
			var resp agreementSetupResponse
			if err := redirect.DecodeJSON(body, &resp); err != nil {
				return "", nil, err
			}
			return resp.AgreementSetup.ApprovalURL, nil, nil
		},
		BuildTokenize: buildTokenize,
		ParseResult:   parseAccountNonce,
	}
}

func payPalEnabled(cfg *domain.Configuration) bool {
	return cfg.PayPalEnabled
}

// withUserAction adds useraction=commit so PayPal shows "Pay Now" instead of "Continue"
func withUserAction(approvalURL, userAction string) (string, error) {
	if userAction == "" || approvalURL == "" {
		return approvalURL, nil
	}
	u, err := url.Parse(approvalURL)
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeJSONParse, "PayPal approval URL is not a valid URL", err)
	}
	q := u.Query()
	q.Set("useraction", userAction)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func buildTokenize(params *domain.PaymentAuthRequestParams, returnURL string) (string, string, error) {
	account := tokenizeAccount{
		WebResponse:       redirect.NewWebResponse(returnURL),
		CorrelationID:     params.ClientMetadataID,
		Intent:            params.Intent,
		MerchantAccountID: params.MerchantAccountID,
		Client:            map[string]string{},
	}
	account.Options.Validate = false

	body, err := encoding.EncodeJSONString(tokenizeBody{PayPalAccount: account})
	if err != nil {
		return "", "", err
	}
	return tokenizePath, body, nil
}

func parseAccountNonce(body string) (domain.PaymentMethodNonce, error) {
	var resp accountResponse
	if err := redirect.DecodeJSON(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.PayPalAccounts) == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "tokenize response contains no PayPal account")
	}

	a := resp.PayPalAccounts[0]
	return &domain.PayPalAccountNonce{
		BaseNonce: domain.BaseNonce{
			Value:       a.Nonce,
			Type:        a.Type,
			Description: a.Description,
			IsDefault:   a.Default,
		},
		Email:            a.Details.Email,
		PayerID:          a.Details.PayerInfo.PayerID,
		FirstName:        a.Details.PayerInfo.FirstName,
		LastName:         a.Details.PayerInfo.LastName,
		Phone:            a.Details.PayerInfo.Phone,
		ClientMetadataID: a.Details.CorrelationID,
		BillingAddress:   a.Details.PayerInfo.BillingAddress.toPostal(),
		ShippingAddress:  a.Details.PayerInfo.ShippingAddress.toPostal(),
	}, nil
}
