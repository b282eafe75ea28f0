// Package sepa implements SEPA Direct Debit mandate approval on the shared redirect flow.
package sepa

import (
	"context"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/redirect"
	"github.com/kevin07696/payment-sdk/internal/services/session"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	"go.uber.org/zap"
)

const (
	createMandatePath = "/v1/sepa_debit"
	tokenizePath      = "/v1/payment_methods/sepa_debit_accounts"
	returnPath        = "sepa"
	tokenKey          = "token"

	nonceType = "SEPADirectDebit"
)

// Keys of values carried from mandate creation to tokenization
const (
	extraIBANLastChars      = "ibanLastChars"
	extraCustomerID         = "customerId"
	extraBankReferenceToken = "bankReferenceToken"
	extraMandateType        = "mandateType"
)

// sepaService implements the SEPAService port
type sepaService struct {
	flow   *redirect.Flow
	def    *redirect.Definition
	logger *zap.Logger
}

// NewSEPAService creates a new SEPA Direct Debit service
func NewSEPAService(s *session.Session, logger *zap.Logger) ports.SEPAService {
	return &sepaService{
		flow: redirect.NewFlow(s, logger),
		def: &redirect.Definition{
			Method:         domain.PaymentMethodSEPA,
			Enabled:        func(cfg *domain.Configuration) bool { return cfg.SEPADirectDebit.Enabled },
			CreatePath:     createMandatePath,
			ReturnPath:     returnPath,
			TokenKey:       tokenKey,
			ParseCreate:    parseMandate,
			BuildTokenize:  buildTokenize,
			TokenizeDirect: tokenizeDirect,
			ParseResult:    parseNonce,
		},
		logger: logger,
	}
}

// CreatePaymentAuthRequest creates a mandate. An already approved mandate needs no browser switch.
func (s *sepaService) CreatePaymentAuthRequest(ctx context.Context, req *ports.SEPARequest) (*domain.PaymentAuthRequest, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	mandateType := req.MandateType
	if mandateType == "" {
		mandateType = ports.SEPAMandateOneOff
	}

	build := func(_ *domain.Configuration, urls redirect.ReturnURLs) (string, error) {
		body := createBody{
			SEPADebit: sepaDebit{
				CustomerID:        req.CustomerID,
				MandateType:       string(mandateType),
				AccountHolderName: req.AccountHolderName,
				IBAN:              strings.ReplaceAll(req.IBAN, " ", ""),
				BillingAddress:    newBillingAddress(req.BillingAddress),
			},
			Locale:            req.Locale,
			CancelURL:         urls.Cancel,
			ReturnURL:         urls.Success,
			MerchantAccountID: req.MerchantAccountID,
		}
		return encoding.EncodeJSONString(body)
	}

	return s.flow.CreatePaymentAuthRequest(ctx, s.def, build, redirect.Params{
		MerchantAccountID: req.MerchantAccountID,
	})
}

// Tokenize validates the mandate approval return and tokenizes the account
func (s *sepaService) Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result {
	return s.flow.Tokenize(ctx, s.def, result)
}

// TokenizeWithoutLaunch tokenizes a mandate the gateway approved at creation
func (s *sepaService) TokenizeWithoutLaunch(ctx context.Context, req *domain.PaymentAuthRequest) domain.Result {
	return s.flow.TokenizeWithoutLaunch(ctx, s.def, req)
}

func validate(req *ports.SEPARequest) error {
	if req == nil {
		return domain.NewDomainError(domain.ErrorCodeInvalidArgument, "SEPA request is required")
	}
	missing := func(field string) error {
		return domain.NewDomainError(domain.ErrorCodeInvalidArgument, field+" is required").WithDetail("field", field)
	}
	switch {
	case strings.TrimSpace(req.IBAN) == "":
		return missing("iban")
	case strings.TrimSpace(req.AccountHolderName) == "":
		return missing("accountHolderName")
	case strings.TrimSpace(req.CustomerID) == "":
		return missing("customerId")
	}
	switch req.MandateType {
	case "", ports.SEPAMandateOneOff, ports.SEPAMandateRecurrent:
		return nil
	default:
		return domain.NewDomainError(domain.ErrorCodeInvalidArgument, "mandate type must be ONE_OFF or RECURRENT").
			WithDetail("mandateType", string(req.MandateType))
	}
}

func parseMandate(body string, _ *domain.Configuration, _ redirect.ReturnURLs) (string, map[string]string, error) {
	var resp mandateResponse
	if err := redirect.DecodeJSON(body, &resp); err != nil {
		return "", nil, err
	}

	account := resp.Message.Body.SEPADebitAccount
	return account.ApprovalURL, map[string]string{
		extraIBANLastChars:      account.IBANLastChars,
		extraCustomerID:         account.CustomerID,
		extraBankReferenceToken: account.BankReferenceToken,
		extraMandateType:        account.MandateType,
	}, nil
}

func buildTokenize(params *domain.PaymentAuthRequestParams, _ string) (string, string, error) {
	if params.Extras[extraBankReferenceToken] == "" {
		return "", "", domain.NewDomainError(domain.ErrorCodeInconsistentData, "mandate carries no bank reference token")
	}

	body, err := encoding.EncodeJSONString(tokenizeBody{
		SEPADebitAccount: tokenizeAccount{
			IBANLastChars:      params.Extras[extraIBANLastChars],
			CustomerID:         params.Extras[extraCustomerID],
			BankReferenceToken: params.Extras[extraBankReferenceToken],
			MandateType:        params.Extras[extraMandateType],
			MerchantAccountID:  params.MerchantAccountID,
		},
	})
	if err != nil {
		return "", "", err
	}
	return tokenizePath, body, nil
}

func tokenizeDirect(params *domain.PaymentAuthRequestParams, _ string) (string, string, error) {
	return buildTokenize(params, "")
}

func parseNonce(body string) (domain.PaymentMethodNonce, error) {
	var resp nonceResponse
	if err := redirect.DecodeJSON(body, &resp); err != nil {
		return nil, err
	}
	if resp.Nonce == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeJSONParse, "tokenize response contains no nonce")
	}

	return &domain.SEPADirectDebitNonce{
		BaseNonce:    domain.BaseNonce{Value: resp.Nonce, Type: nonceType},
		IBANLastFour: resp.Details.IBANLastChars,
		CustomerID:   resp.Details.CustomerID,
		MandateType:  resp.Details.MandateType,
	}, nil
}
