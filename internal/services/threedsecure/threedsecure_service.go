// Package threedsecure verifies card nonces with 3D Secure on the shared redirect flow.
package threedsecure

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/redirect"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
	"go.uber.org/zap"
)

const (
	returnPath   = "three-d-secure"
	tokenKey     = "md"
	redirectPage = "/mobile/three-d-secure-redirect/0.2.0/index.html"

	requestedVersion = "2"
	authResponseKey  = "auth_response"
)

// Keys of values carried from lookup to authentication
const (
	extraNonce   = "nonce"
	extraVersion = "threeDSecureVersion"
)

// threeDSecureService implements the ThreeDSecureService port
type threeDSecureService struct {
	flow   *redirect.Flow
	def    *redirect.Definition
	logger *zap.Logger
}

// NewThreeDSecureService creates a new 3D Secure service
func NewThreeDSecureService(s *session.Session, logger *zap.Logger) ports.ThreeDSecureService {
	return &threeDSecureService{
		flow: redirect.NewFlow(s, logger),
		def: &redirect.Definition{
			Method:        domain.PaymentMethodThreeDSecure,
			Enabled:       func(cfg *domain.Configuration) bool { return cfg.ThreeDSecureEnabled },
			ReturnPath:    returnPath,
			TokenKey:      tokenKey,
			ParseCreate:   parseLookup,
			BuildTokenize: buildAuthenticate,
			ParseResult:   parseVerification,
		},
		logger: logger,
	}
}

func lookupPath(nonce string) string {
	return "/v1/payment_methods/" + url.PathEscape(nonce) + "/three_d_secure/lookup"
}

func authenticatePath(nonce string) string {
	return "/v1/payment_methods/" + url.PathEscape(nonce) + "/three_d_secure/authenticate"
}

// CreatePaymentAuthRequest performs the 3DS lookup. Frictionless lookups need no browser switch.
func (t *threeDSecureService) CreatePaymentAuthRequest(ctx context.Context, req *ports.ThreeDSecureRequest) (*domain.PaymentAuthRequest, error) {
	if req == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "3D Secure request is required")
	}
	if strings.TrimSpace(req.Nonce) == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "nonce is required").WithDetail("field", "nonce")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidArgument, "amount must be greater than zero").
			WithDetail("amount", req.Amount.String())
	}

	build := func(_ *domain.Configuration, _ redirect.ReturnURLs) (string, error) {
		return encoding.EncodeJSONString(lookupBody{
			Amount: req.Amount.StringFixed(2),
			Customer: lookupCustomer{
				Email:             req.Email,
				MobilePhoneNumber: req.MobilePhoneNumber,
				BillingAddress:    newBillingAddress(req.BillingAddress),
			},
			RequestedThreeDSecureVersion: requestedVersion,
			ChallengeRequested:           req.ChallengeRequested,
			MerchantAccountID:            req.MerchantAccountID,
		})
	}

	return t.flow.CreatePaymentAuthRequest(ctx, t.def, build, redirect.Params{
		CreatePath:        lookupPath(req.Nonce),
		MerchantAccountID: req.MerchantAccountID,
	})
}

// Tokenize authenticates the challenge result carried on the return URL
func (t *threeDSecureService) Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result {
	return t.flow.Tokenize(ctx, t.def, result)
}

// TokenizeWithoutLaunch returns the nonce of a frictionless lookup
func (t *threeDSecureService) TokenizeWithoutLaunch(ctx context.Context, req *domain.PaymentAuthRequest) domain.Result {
	return t.flow.TokenizeWithoutLaunch(ctx, t.def, req)
}

func parseLookup(body string, cfg *domain.Configuration, urls redirect.ReturnURLs) (string, map[string]string, error) {
	var resp verificationResponse
	if err := redirect.DecodeJSON(body, &resp); err != nil {
		return "", nil, err
	}
	if resp.Lookup == nil || resp.PaymentMethod == nil {
		return "", nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "lookup response is missing lookup or paymentMethod")
	}

	extras := map[string]string{
		extraNonce:   resp.PaymentMethod.Nonce,
		extraVersion: resp.Lookup.ThreeDSecureVersion,
	}

	if resp.Lookup.AcsURL == nil || *resp.Lookup.AcsURL == "" {
		return "", extras, nil
	}
	if cfg.AssetsURL == "" {
		return "", nil, domain.NewDomainError(domain.ErrorCodeConfigurationRequired, "configuration has no assetsUrl for the 3D Secure redirect page")
	}

	q := url.Values{}
	q.Set("AcsUrl", *resp.Lookup.AcsURL)
	q.Set("PaReq", resp.Lookup.PaReq)
	q.Set("TermUrl", resp.Lookup.TermURL)
	q.Set("ReturnUrl", urls.Success)
	q.Set(tokenKey, resp.Lookup.MD)

	return strings.TrimSuffix(cfg.AssetsURL, "/") + redirectPage + "?" + q.Encode(), extras, nil
}

func buildAuthenticate(params *domain.PaymentAuthRequestParams, returnURL string) (string, string, error) {
	nonce := params.Extras[extraNonce]
	if nonce == "" {
		return "", "", domain.NewDomainError(domain.ErrorCodeInconsistentData, "lookup carries no nonce")
	}

	u, err := url.Parse(returnURL)
	if err != nil {
		return "", "", domain.WrapError(domain.ErrorCodeBrowserSwitch, "browser switch return URL is not a valid URL", err)
	}
	authResponse := u.Query().Get(authResponseKey)
	if authResponse == "" {
		return "", "", domain.NewDomainError(domain.ErrorCodeInconsistentData, "return URL carries no auth_response")
	}

	body, err := encoding.EncodeJSONString(authenticateBody{AuthResponse: authResponse})
	if err != nil {
		return "", "", err
	}
	return authenticatePath(nonce), body, nil
}

// parseVerification reads lookup and authenticate responses into a 3DS nonce
func parseVerification(body string) (domain.PaymentMethodNonce, error) {
	var resp verificationResponse
	if err := redirect.DecodeJSON(body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 || (resp.Success != nil && !*resp.Success) {
		return nil, authenticationError(body, resp.Errors)
	}
	if resp.PaymentMethod == nil || resp.PaymentMethod.Nonce == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "3D Secure response contains no payment method")
	}

	pm := resp.PaymentMethod
	return &domain.ThreeDSecureNonce{
		CardNonce: domain.CardNonce{
			BaseNonce: domain.BaseNonce{
				Value:       pm.Nonce,
				Type:        pm.Type,
				Description: pm.Description,
				IsDefault:   pm.Default,
			},
			CardType:        pm.Details.CardType,
			LastTwo:         pm.Details.LastTwo,
			LastFour:        pm.Details.LastFour,
			BIN:             pm.Details.BIN,
			ExpirationMonth: pm.Details.ExpirationMonth,
			ExpirationYear:  pm.Details.ExpirationYear,
			CardholderName:  pm.Details.CardholderName,
		},
		ThreeDSecure: resp.ThreeDSecureInfo,
	}, nil
}

func authenticationError(body string, errs []responseError) *pkgerrors.ErrorWithResponse {
	ewr := &pkgerrors.ErrorWithResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "3D Secure authentication failed",
		Body:       body,
	}
	for _, e := range errs {
		ewr.FieldErrors = append(ewr.FieldErrors, pkgerrors.NewValidationError(e.Attribute, e.Message))
	}
	if len(errs) > 0 {
		ewr.Message = errs[0].Message
	}
	return ewr
}
