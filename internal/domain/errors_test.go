package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without_wrapped_error",
			err:      NewDomainError(ErrorCodeInvalidArgument, MessagePathRequired),
			expected: "INVALID_ARGUMENT: Path cannot be null",
		},
		{
			name:     "with_wrapped_error",
			err:      WrapError(ErrorCodeJSONParse, "bad body", errors.New("unexpected EOF")),
			expected: "JSON_PARSE: bad body: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Wrapping(t *testing.T) {
	base := errors.New("connection reset")
	wrapped := fmt.Errorf("fetch configuration: %w", WrapError(ErrorCodeStorage, "write failed", base))

	assert.True(t, errors.Is(wrapped, base))
	assert.True(t, IsDomainError(wrapped, ErrorCodeStorage))
	assert.False(t, IsDomainError(wrapped, ErrorCodeJSONParse))
	assert.Equal(t, ErrorCodeStorage, GetErrorCode(wrapped))
	assert.Equal(t, ErrorCode(""), GetErrorCode(base))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := ErrFeatureNotEnabled("PayPal")

	assert.Equal(t, ErrorCodeFeatureNotEnabled, err.Code)
	assert.Equal(t, "PayPal", err.Details["method"])
	assert.Contains(t, err.Error(), "PayPal is not enabled")
}

func TestDomainError_Classification(t *testing.T) {
	assert.True(t, IsUserCanceled(ErrUserCanceled()))
	assert.False(t, IsUserCanceled(ErrInconsistentData()))

	assert.True(t, IsConfigurationError(NewDomainError(ErrorCodeConfigurationRequired, MessageBaseURLRequired)))
	assert.True(t, IsConfigurationError(ErrFeatureNotEnabled("SEPA")))
	assert.False(t, IsConfigurationError(ErrInconsistentData()))

	assert.Equal(t, MessageInconsistentData, ErrInconsistentData().Message)
}
