// Package mocks holds testify mocks of the domain interfaces
package mocks

import (
	"context"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockHistoryRepository mocks the HistoryRepository interface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) LoadAll(ctx context.Context) ([]entity.HistoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRateSource mocks the RateSource interface
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRateSource) FetchRates(ctx context.Context) (*entity.RateFetchResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RateFetchResult), args.Error(1)
}

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchRates(ctx context.Context) *entity.RateFetchResult {
	args := m.Called(ctx)
	return args.Get(0).(*entity.RateFetchResult)
}

func (m *MockRateProvider) Invalidate() {
	m.Called()
}
