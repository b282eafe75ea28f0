package mocks

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockLauncher is a testify mock of ports.BrowserSwitchLauncher
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context, opts *domain.BrowserSwitchOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}
