package mocks

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockGatewayClient is a testify mock of ports.GatewayClient
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) Get(ctx context.Context, path string, cfg *domain.Configuration) (string, error) {
	args := m.Called(ctx, path, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockGatewayClient) Post(ctx context.Context, path, body string, cfg *domain.Configuration) (string, error) {
	args := m.Called(ctx, path, body, cfg)
	return args.String(0), args.Error(1)
}

// MockGraphQLClient is a testify mock of ports.GraphQLClient
type MockGraphQLClient struct {
	mock.Mock
}

func (m *MockGraphQLClient) Post(ctx context.Context, body string, cfg *domain.Configuration) (string, error) {
	args := m.Called(ctx, body, cfg)
	return args.String(0), args.Error(1)
}
