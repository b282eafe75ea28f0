package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/shopspring/decimal"
)

// PayPalLineItem is one line of a PayPal checkout
type PayPalLineItem struct {
	Name        string
	Kind        string // debit or credit
	Quantity    int
	UnitAmount  decimal.Decimal
	Description string
	ProductCode string
}

// PayPalRequest holds the fields shared by checkout and vault flows
type PayPalRequest struct {
	MerchantAccountID string
	ClientMetadataID  string
	ShippingRequired  bool
	ShippingOverride  *domain.PostalAddress
	LandingPageType   string // login or billing
	DisplayName       string
	LocaleCode        string
	LineItems         []PayPalLineItem
}

// PayPalCheckoutRequest starts a one-time payment
type PayPalCheckoutRequest struct {
	PayPalRequest
	Amount       decimal.Decimal
	CurrencyCode string
	Intent       string // authorize, sale or order
	UserAction   string // "" or commit
}

// PayPalVaultRequest starts a billing agreement
type PayPalVaultRequest struct {
	PayPalRequest
	BillingAgreementDescription string
}

// PayPalService drives the PayPal browser switch
type PayPalService interface {
	CreateCheckoutRequest(ctx context.Context, req *PayPalCheckoutRequest) (*domain.PaymentAuthRequest, error)
	CreateVaultRequest(ctx context.Context, req *PayPalVaultRequest) (*domain.PaymentAuthRequest, error)
	Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result
}

// SEPAMandateType selects a single or recurring mandate
type SEPAMandateType string

const (
	SEPAMandateOneOff    SEPAMandateType = "ONE_OFF"
	SEPAMandateRecurrent SEPAMandateType = "RECURRENT"
)

// SEPARequest creates a SEPA Direct Debit mandate
type SEPARequest struct {
	AccountHolderName string
	IBAN              string
	CustomerID        string
	MandateType       SEPAMandateType
	BillingAddress    *domain.PostalAddress
	MerchantAccountID string
	Locale            string
}

// SEPAService drives the SEPA mandate browser switch
type SEPAService interface {
	CreatePaymentAuthRequest(ctx context.Context, req *SEPARequest) (*domain.PaymentAuthRequest, error)
	Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result
	TokenizeWithoutLaunch(ctx context.Context, req *domain.PaymentAuthRequest) domain.Result
}

// ThreeDSecureRequest starts a 3D Secure verification of a card nonce
type ThreeDSecureRequest struct {
	Nonce              string
	Amount             decimal.Decimal
	Email              string
	MobilePhoneNumber  string
	BillingAddress     *domain.PostalAddress
	ChallengeRequested bool
	MerchantAccountID  string
}

// ThreeDSecureService drives the 3D Secure browser switch
type ThreeDSecureService interface {
	CreatePaymentAuthRequest(ctx context.Context, req *ThreeDSecureRequest) (*domain.PaymentAuthRequest, error)
	Tokenize(ctx context.Context, result domain.BrowserSwitchResult) domain.Result
	TokenizeWithoutLaunch(ctx context.Context, req *domain.PaymentAuthRequest) domain.Result
}

// Card is raw card data submitted for tokenization
type Card struct {
	Number          string
	ExpirationMonth string
	ExpirationYear  string
	CVV             string
	CardholderName  string
	PostalCode      string
	ShouldValidate  bool
}

// CardService tokenizes cards over GraphQL or REST
type CardService interface {
	Tokenize(ctx context.Context, card *Card) (*domain.CardNonce, error)
}
