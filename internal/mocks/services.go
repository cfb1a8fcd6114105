package mocks

import (
	"context"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
)

// MockAggregationService is a func-field mock of ports.AggregationService.
type MockAggregationService struct {
	RunFunc           func(ctx context.Context, window domain.TimeWindow) (*domain.RunResult, error)
	DefaultWindowFunc func() domain.TimeWindow
	LatestRunFunc     func() *domain.RunResult
}

func (m *MockAggregationService) Run(ctx context.Context, window domain.TimeWindow) (*domain.RunResult, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, window)
	}
	return &domain.RunResult{
		Status:          domain.RunStatusSuccess,
		ProcessedWindow: window,
	}, nil
}

func (m *MockAggregationService) DefaultWindow() domain.TimeWindow {
	if m.DefaultWindowFunc != nil {
		return m.DefaultWindowFunc()
	}
	return domain.TimeWindow{}
}

func (m *MockAggregationService) LatestRun() *domain.RunResult {
	if m.LatestRunFunc != nil {
		return m.LatestRunFunc()
	}
	return nil
}
