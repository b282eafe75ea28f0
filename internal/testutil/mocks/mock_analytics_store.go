package mocks

import (
	"context"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockAnalyticsStore is a testify mock of ports.AnalyticsStore
type MockAnalyticsStore struct {
	mock.Mock
}

func (m *MockAnalyticsStore) Append(ctx context.Context, event domain.AnalyticsEvent) (int64, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalyticsStore) DrainGroupedByMetadata(ctx context.Context) ([]domain.AnalyticsBatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalyticsBatch), args.Error(1)
}

func (m *MockAnalyticsStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockAnalyticsStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalyticsStore) InstallationID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyticsStore) Close() error {
	return m.Called().Error(0)
}
