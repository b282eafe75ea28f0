package resilience

import (
	"context"
	"time"
)

// TimeoutConfig bounds each SDK operation that may span several gateway calls.
// Single requests are already bounded by the transport's connect and read timeouts;
// these budgets cover the sequence (configuration fetch, create, tokenize).
type TimeoutConfig struct {
	Configuration  time.Duration // Remote configuration fetch (default: 30s)
	Tokenize       time.Duration // Create or tokenize sequence (default: 90s)
	AnalyticsFlush time.Duration // One flush of every pending batch (default: 60s)
	Shutdown       time.Duration // Final flush on Close (default: 10s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Configuration:  30 * time.Second,
		Tokenize:       90 * time.Second,
		AnalyticsFlush: 60 * time.Second,
		Shutdown:       10 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Configuration:  2 * time.Second,
		Tokenize:       4 * time.Second,
		AnalyticsFlush: 2 * time.Second,
		Shutdown:       1 * time.Second,
	}
}

// ConfigurationContext creates a context for a configuration fetch
func (tc *TimeoutConfig) ConfigurationContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Configuration)
}

// TokenizeContext creates a context for a create or tokenize sequence
func (tc *TimeoutConfig) TokenizeContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Tokenize)
}

// AnalyticsFlushContext creates a context for one analytics flush
func (tc *TimeoutConfig) AnalyticsFlushContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.AnalyticsFlush)
}

// ShutdownContext creates a context for the final flush
func (tc *TimeoutConfig) ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Shutdown)
}
