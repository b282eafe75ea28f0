package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Setup errors: the host must fix its integration, never retried
	ErrorCodeConfigurationRequired ErrorCode = "CONFIGURATION_REQUIRED"
	ErrorCodeFeatureNotEnabled     ErrorCode = "FEATURE_NOT_ENABLED"
	ErrorCodeInvalidArgument       ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeInvalidAuthorization  ErrorCode = "INVALID_AUTHORIZATION"

	// Response handling
	ErrorCodeJSONParse ErrorCode = "JSON_PARSE"

	// Browser switch outcomes
	ErrorCodeUserCanceled     ErrorCode = "USER_CANCELED"
	ErrorCodeInconsistentData ErrorCode = "INCONSISTENT_DATA"
	ErrorCodeBrowserSwitch    ErrorCode = "BROWSER_SWITCH"

	// Internal Errors (INTERNAL_*)
	ErrorCodeStorage ErrorCode = "INTERNAL_STORAGE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsUserCanceled reports whether err is a deliberate user abort rather than a failure
func IsUserCanceled(err error) bool {
	return IsDomainError(err, ErrorCodeUserCanceled)
}

// IsConfigurationError checks if an error must be fixed in the host's setup
func IsConfigurationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeConfigurationRequired ||
		code == ErrorCodeFeatureNotEnabled ||
		code == ErrorCodeInvalidArgument ||
		code == ErrorCodeInvalidAuthorization
}

// Messages shared by every caller that raises these errors
const (
	MessagePathRequired     = "Path cannot be null"
	MessageInconsistentData = "The response contained inconsistent data."
	MessageUserCanceled     = "User canceled the browser switch."
	MessageBaseURLRequired  = "A base URL is required to send a relative path. Fetch configuration first."
)

// ErrInconsistentData returns the error raised when a redirect response does not match its request
func ErrInconsistentData() *DomainError {
	return NewDomainError(ErrorCodeInconsistentData, MessageInconsistentData)
}

// ErrUserCanceled returns the error attached to a canceled browser switch
func ErrUserCanceled() *DomainError {
	return NewDomainError(ErrorCodeUserCanceled, MessageUserCanceled)
}

// ErrFeatureNotEnabled returns the error raised when configuration disables a payment method
func ErrFeatureNotEnabled(method string) *DomainError {
	return NewDomainError(ErrorCodeFeatureNotEnabled,
		fmt.Sprintf("%s is not enabled for this merchant", method)).
		WithDetail("method", method)
}
