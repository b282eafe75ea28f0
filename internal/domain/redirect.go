package domain

import (
	"encoding/json"
	"fmt"
)

// PaymentMethod names a payment method that authenticates through a browser switch
type PaymentMethod string

const (
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodSEPA         PaymentMethod = "sepa-direct-debit"
	PaymentMethodThreeDSecure PaymentMethod = "three-d-secure"
)

// BrowserSwitchOptions is everything the external launcher needs to open the approval URL.
// Metadata is opaque to the launcher and must be handed back unchanged on return.
type BrowserSwitchOptions struct {
	URL             string          `json:"url"`
	ReturnURLScheme string          `json:"returnUrlScheme"`
	Metadata        json.RawMessage `json:"metadata"`
}

// BrowserSwitchStatus is reported by the launcher when the user comes back
type BrowserSwitchStatus string

const (
	BrowserSwitchSuccess  BrowserSwitchStatus = "SUCCESS"
	BrowserSwitchCanceled BrowserSwitchStatus = "CANCELED"
)

// BrowserSwitchResult is delivered when the external browser or app returns to the host
type BrowserSwitchResult struct {
	Status    BrowserSwitchStatus `json:"status"`
	ReturnURL string              `json:"returnUrl,omitempty"`
	Metadata  json.RawMessage     `json:"metadata"`
}

// PaymentAuthRequestParams is the state that must survive the browser switch.
// It travels inside BrowserSwitchOptions.Metadata rather than in process memory.
type PaymentAuthRequestParams struct {
	Method            PaymentMethod     `json:"method"`
	ApprovalURL       string            `json:"approvalUrl"`
	SuccessURL        string            `json:"successUrl"`
	CancelURL         string            `json:"cancelUrl"`
	TokenKey          string            `json:"tokenKey"`
	Token             string            `json:"token"`
	ClientMetadataID  string            `json:"clientMetadataId,omitempty"`
	MerchantAccountID string            `json:"merchantAccountId,omitempty"`
	Intent            string            `json:"intent,omitempty"`
	Extras            map[string]string `json:"extras,omitempty"`
}

// Encode serializes the params into browser switch metadata
func (p *PaymentAuthRequestParams) Encode() (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment auth request: %w", err)
	}
	return b, nil
}

// DecodePaymentAuthRequestParams restores params from browser switch metadata
func DecodePaymentAuthRequestParams(metadata json.RawMessage) (*PaymentAuthRequestParams, error) {
	if len(metadata) == 0 {
		return nil, NewDomainError(ErrorCodeBrowserSwitch, "browser switch result carries no request metadata")
	}
	var p PaymentAuthRequestParams
	if err := json.Unmarshal(metadata, &p); err != nil {
		return nil, WrapError(ErrorCodeJSONParse, "browser switch metadata is not valid JSON", err)
	}
	return &p, nil
}

// PaymentAuthRequest is the outcome of the creation step.
// When LaunchRequired is false the gateway already approved the resource and
// CreateResponse can be tokenized without a browser switch.
type PaymentAuthRequest struct {
	LaunchRequired bool
	BrowserSwitch  *BrowserSwitchOptions
	Params         PaymentAuthRequestParams
	CreateResponse string
}

// ResultStatus is the terminal state of a redirect flow
type ResultStatus string

const (
	ResultSuccess ResultStatus = "SUCCESS"
	ResultFailure ResultStatus = "FAILURE"
	ResultCancel  ResultStatus = "CANCEL"
)

// Result is terminal: Success carries a nonce, Failure an error, Cancel optionally USER_CANCELED
type Result struct {
	Status ResultStatus
	Nonce  PaymentMethodNonce
	Err    error
}

// SuccessResult wraps a tokenized nonce
func SuccessResult(nonce PaymentMethodNonce) Result {
	return Result{Status: ResultSuccess, Nonce: nonce}
}

// FailureResult wraps an error
func FailureResult(err error) Result {
	return Result{Status: ResultFailure, Err: err}
}

// CancelResult marks a deliberate user abort
func CancelResult(err error) Result {
	return Result{Status: ResultCancel, Err: err}
}
