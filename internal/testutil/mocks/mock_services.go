package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockConfigurationService is a testify mock of ports.ConfigurationService
type MockConfigurationService struct {
	mock.Mock
}

func (m *MockConfigurationService) Fetch(ctx context.Context) (*domain.Configuration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Configuration), args.Error(1)
}

func (m *MockConfigurationService) Invalidate() {
	m.Called()
}

// AnalyticsRecorder implements ports.AnalyticsQueue by keeping events in memory
type AnalyticsRecorder struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (r *AnalyticsRecorder) Enqueue(event domain.AnalyticsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *AnalyticsRecorder) Flush(context.Context) error { return nil }
func (r *AnalyticsRecorder) Close(context.Context) error { return nil }

// Events returns a snapshot of recorded events
func (r *AnalyticsRecorder) Events() []domain.AnalyticsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AnalyticsEvent(nil), r.events...)
}

// Names returns the recorded event names in order
func (r *AnalyticsRecorder) Names() []string {
	events := r.Events()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}
