// Package browserswitch opens approval URLs outside the process and turns the host's return
// URI back into a browser switch result.
package browserswitch

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"go.uber.org/zap"
)

// SystemLauncher opens approval URLs with the platform's default URL handler
type SystemLauncher struct {
	goos   string
	start  func(ctx context.Context, name string, args ...string) error
	logger *zap.Logger
}

var _ ports.BrowserSwitchLauncher = (*SystemLauncher)(nil)

// NewSystemLauncher creates a launcher for the running OS
func NewSystemLauncher(logger *zap.Logger) *SystemLauncher {
	return &SystemLauncher{
		goos:   runtime.GOOS,
		start:  startDetached,
		logger: logger,
	}
}

// Launch opens opts.URL. Only http and https URLs are handed to the OS.
func (l *SystemLauncher) Launch(ctx context.Context, opts *domain.BrowserSwitchOptions) error {
	if opts == nil || opts.URL == "" {
		return domain.NewDomainError(domain.ErrorCodeInvalidArgument, "browser switch URL is required")
	}
	if opts.ReturnURLScheme == "" {
		return domain.NewDomainError(domain.ErrorCodeConfigurationRequired, "a return URL scheme is required to launch a browser switch")
	}

	u, err := url.Parse(opts.URL)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeBrowserSwitch, "browser switch URL is not a valid URL", err)
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "https" && scheme != "http" {
		return domain.NewDomainError(domain.ErrorCodeBrowserSwitch, "browser switch URL must be http or https").
			WithDetail("scheme", u.Scheme)
	}

	name, args := openCommand(l.goos, u.String())
	l.logger.Info("Launching browser switch",
		zap.String("host", u.Host),
		zap.String("opener", name),
	)

	if err := l.start(ctx, name, args...); err != nil {
		return domain.WrapError(domain.ErrorCodeBrowserSwitch, "failed to open browser", err)
	}
	return nil
}

func openCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// startDetached starts the opener and reaps it in the background.
// The opener is not bound to the caller's context and outlives it.
func startDetached(_ context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
