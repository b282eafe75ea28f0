package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryAuthentication     ErrorCategory = "authentication"
	CategoryAuthorization      ErrorCategory = "authorization"
	CategoryValidation         ErrorCategory = "validation"
	CategoryUpgradeRequired    ErrorCategory = "upgrade_required"
	CategoryRateLimited        ErrorCategory = "rate_limited"
	CategoryServerError        ErrorCategory = "server_error"
	CategoryDownForMaintenance ErrorCategory = "down_for_maintenance"
	CategoryUnexpected         ErrorCategory = "unexpected"
	CategoryTimeout            ErrorCategory = "timeout"
	CategoryNetworkError       ErrorCategory = "network_error"
)

// GatewayError represents a non-validation failure reported by (or on the way to) the gateway
type GatewayError struct {
	StatusCode  int
	Category    ErrorCategory
	Message     string
	Body        string
	IsRetriable bool
	Err         error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Category, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying transport error, if any
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error
func NewGatewayError(statusCode int, category ErrorCategory, message, body string) *GatewayError {
	return &GatewayError{
		StatusCode:  statusCode,
		Category:    category,
		Message:     message,
		Body:        body,
		IsRetriable: retriable(category),
	}
}

// NewTransportError wraps an I/O failure that happened before a response was received
func NewTransportError(category ErrorCategory, message string, err error) *GatewayError {
	return &GatewayError{
		Category:    category,
		Message:     message,
		IsRetriable: retriable(category),
		Err:         err,
	}
}

// Gateway-side conditions may clear up on their own; credential and input problems will not.
func retriable(category ErrorCategory) bool {
	switch category {
	case CategoryServerError, CategoryDownForMaintenance, CategoryRateLimited,
		CategoryTimeout, CategoryNetworkError:
		return true
	default:
		return false
	}
}

// ValidationError is one node of the gateway's field error tree
type ValidationError struct {
	Field       string             `json:"field"`
	Message     string             `json:"message,omitempty"`
	Code        string             `json:"code,omitempty"`
	FieldErrors []*ValidationError `json:"fieldErrors,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ErrorFor searches this node's children (recursively) for the given field
func (e *ValidationError) ErrorFor(field string) *ValidationError {
	return findField(e.FieldErrors, field)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ErrorWithResponse is returned when the gateway rejects the submitted input (400/422)
type ErrorWithResponse struct {
	StatusCode  int
	Message     string
	Body        string
	FieldErrors []*ValidationError
}

func (e *ErrorWithResponse) Error() string {
	return e.Message
}

// ErrorFor returns the first error for the given field anywhere in the tree
func (e *ErrorWithResponse) ErrorFor(field string) *ValidationError {
	return findField(e.FieldErrors, field)
}

func findField(nodes []*ValidationError, field string) *ValidationError {
	for _, node := range nodes {
		if node.Field == field {
			return node
		}
		if found := findField(node.FieldErrors, field); found != nil {
			return found
		}
	}
	return nil
}

type restErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	FieldErrors []*ValidationError `json:"fieldErrors"`
}

// ParseErrorWithResponse builds an ErrorWithResponse from a REST error body.
// Bodies that are not JSON keep the raw text as the message.
func ParseErrorWithResponse(statusCode int, body string) *ErrorWithResponse {
	ewr := &ErrorWithResponse{StatusCode: statusCode, Body: body}

	var envelope restErrorEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		ewr.Message = "Parsing error response failed"
		if trimmed := strings.TrimSpace(body); trimmed != "" {
			ewr.Message = trimmed
		}
		return ewr
	}

	ewr.Message = envelope.Error.Message
	ewr.FieldErrors = envelope.FieldErrors
	return ewr
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		ErrorType  string   `json:"errorType"`
		LegacyCode string   `json:"legacyCode"`
		InputPath  []string `json:"inputPath"`
	} `json:"extensions"`
}

// ParseGraphQLErrorWithResponse converts a GraphQL "errors" array into an ErrorWithResponse.
// Each error's input path (minus the leading "input") becomes a nested field error chain.
func ParseGraphQLErrorWithResponse(statusCode int, body string, rawErrors json.RawMessage) *ErrorWithResponse {
	ewr := &ErrorWithResponse{StatusCode: statusCode, Body: body, Message: "Input is invalid."}

	var gqlErrors []graphQLError
	if err := json.Unmarshal(rawErrors, &gqlErrors); err != nil {
		return ewr
	}

	for _, gqlErr := range gqlErrors {
		path := gqlErr.Extensions.InputPath
		if len(path) > 0 && path[0] == "input" {
			path = path[1:]
		}
		if len(path) == 0 {
			continue
		}
		ewr.FieldErrors = addFieldPath(ewr.FieldErrors, path, gqlErr.Message, gqlErr.Extensions.LegacyCode)
	}

	if len(ewr.FieldErrors) == 0 && len(gqlErrors) > 0 {
		ewr.Message = gqlErrors[0].Message
	}
	return ewr
}

func addFieldPath(nodes []*ValidationError, path []string, message, code string) []*ValidationError {
	field := path[0]
	var node *ValidationError
	for _, existing := range nodes {
		if existing.Field == field {
			node = existing
			break
		}
	}
	if node == nil {
		node = &ValidationError{Field: field}
		nodes = append(nodes, node)
	}

	if len(path) == 1 {
		node.Message = message
		node.Code = code
		return nodes
	}
	node.FieldErrors = addFieldPath(node.FieldErrors, path[1:], message, code)
	return nodes
}

// ParseErrorMessage extracts error.message from a standard envelope, falling back to the given text
func ParseErrorMessage(body, fallback string) string {
	var envelope restErrorEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// CategoryOf returns the category of a gateway error, or "" when err is not one
func CategoryOf(err error) ErrorCategory {
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr.Category
	}
	var ewr *ErrorWithResponse
	if stderrors.As(err, &ewr) {
		return CategoryValidation
	}
	return ""
}

// IsAuthentication reports whether err is a 401-class failure
func IsAuthentication(err error) bool {
	return CategoryOf(err) == CategoryAuthentication
}

// IsAuthorization reports whether err is a 403-class failure
func IsAuthorization(err error) bool {
	return CategoryOf(err) == CategoryAuthorization
}

// IsRetriable reports whether the caller may retry the same request later
func IsRetriable(err error) bool {
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr.IsRetriable
	}
	return false
}
