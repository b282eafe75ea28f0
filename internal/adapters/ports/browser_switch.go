package ports

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// BrowserSwitchLauncher opens an approval URL in an external browser or wallet app.
// The host delivers the return URI later, possibly to a new process; the launcher
// must not be relied on to remember anything about the request.
type BrowserSwitchLauncher interface {
	Launch(ctx context.Context, opts *domain.BrowserSwitchOptions) error
}
