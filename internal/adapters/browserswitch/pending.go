package browserswitch

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// EncodePendingRequest serializes launch options so the host can keep them across process death
func EncodePendingRequest(opts *domain.BrowserSwitchOptions) (string, error) {
	if opts == nil {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidArgument, "browser switch options are required")
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeJSONParse, "failed to encode pending request", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodePendingRequest restores options saved by EncodePendingRequest
func DecodePendingRequest(s string) (*domain.BrowserSwitchOptions, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeBrowserSwitch, "pending request is not valid base64url", err)
	}

	var opts domain.BrowserSwitchOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeJSONParse, "pending request is not valid JSON", err)
	}
	if len(opts.Metadata) == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeBrowserSwitch, "pending request carries no metadata")
	}
	return &opts, nil
}

// Result pairs a return URI with the pending request it answers.
// URIs whose scheme differs from the one registered at launch are rejected.
func Result(pending *domain.BrowserSwitchOptions, returnURI string) (domain.BrowserSwitchResult, error) {
	if pending == nil {
		return domain.BrowserSwitchResult{}, domain.NewDomainError(domain.ErrorCodeBrowserSwitch, "no pending browser switch request")
	}

	u, err := url.Parse(returnURI)
	if err != nil || returnURI == "" {
		return domain.BrowserSwitchResult{}, domain.WrapError(domain.ErrorCodeBrowserSwitch, "return URI is not a valid URL", err)
	}
	if !strings.EqualFold(u.Scheme, pending.ReturnURLScheme) {
		return domain.BrowserSwitchResult{}, domain.NewDomainError(domain.ErrorCodeBrowserSwitch, "return URI scheme does not match the pending request").
			WithDetail("expected", pending.ReturnURLScheme).
			WithDetail("actual", u.Scheme)
	}

	return domain.BrowserSwitchResult{
		Status:    domain.BrowserSwitchSuccess,
		ReturnURL: returnURI,
		Metadata:  pending.Metadata,
	}, nil
}

// Canceled reports that the user closed the browser without returning
func Canceled(pending *domain.BrowserSwitchOptions) domain.BrowserSwitchResult {
	result := domain.BrowserSwitchResult{Status: domain.BrowserSwitchCanceled}
	if pending != nil {
		result.Metadata = pending.Metadata
	}
	return result
}
