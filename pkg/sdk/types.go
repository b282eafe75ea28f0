package sdk

import (
	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
)

// Host-supplied collaborators
type (
	HTTPClient = adapterports.HTTPClient
	Launcher   = adapterports.BrowserSwitchLauncher
)

// Requests
type (
	PayPalRequest         = ports.PayPalRequest
	PayPalLineItem        = ports.PayPalLineItem
	PayPalCheckoutRequest = ports.PayPalCheckoutRequest
	PayPalVaultRequest    = ports.PayPalVaultRequest
	SEPARequest           = ports.SEPARequest
	SEPAMandateType       = ports.SEPAMandateType
	ThreeDSecureRequest   = ports.ThreeDSecureRequest
	Card                  = ports.Card
	PostalAddress         = domain.PostalAddress
)

const (
	SEPAMandateOneOff    = ports.SEPAMandateOneOff
	SEPAMandateRecurrent = ports.SEPAMandateRecurrent
)

// Browser switch and results
type (
	Configuration        = domain.Configuration
	PaymentAuthRequest   = domain.PaymentAuthRequest
	BrowserSwitchOptions = domain.BrowserSwitchOptions
	BrowserSwitchResult  = domain.BrowserSwitchResult
	Result               = domain.Result
	ResultStatus         = domain.ResultStatus
	PaymentMethodNonce   = domain.PaymentMethodNonce
	PayPalAccountNonce   = domain.PayPalAccountNonce
	SEPADirectDebitNonce = domain.SEPADirectDebitNonce
	CardNonce            = domain.CardNonce
	ThreeDSecureNonce    = domain.ThreeDSecureNonce
)

const (
	ResultSuccess = domain.ResultSuccess
	ResultFailure = domain.ResultFailure
	ResultCancel  = domain.ResultCancel
)

// Errors
type (
	DomainError       = domain.DomainError
	ErrorCode         = domain.ErrorCode
	GatewayError      = pkgerrors.GatewayError
	ErrorWithResponse = pkgerrors.ErrorWithResponse
	ValidationError   = pkgerrors.ValidationError
)

var (
	IsDomainError    = domain.IsDomainError
	IsUserCanceled   = domain.IsUserCanceled
	IsAuthentication = pkgerrors.IsAuthentication
	IsAuthorization  = pkgerrors.IsAuthorization
	IsRetriable      = pkgerrors.IsRetriable
)
