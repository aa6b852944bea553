// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockRecordRepository mocks the RecordRepository interface
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) QueryAll(ctx context.Context) ([]entity.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Record), args.Error(1)
}

func (m *MockRecordRepository) UpdateRate(ctx context.Context, id string, rate float64) error {
	args := m.Called(ctx, id, rate)
	return args.Error(0)
}

// MockSyncRunRepository mocks the SyncRunRepository interface
type MockSyncRunRepository struct {
	mock.Mock
}

func (m *MockSyncRunRepository) Store(ctx context.Context, run *entity.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncRunRepository) FindByID(ctx context.Context, id string) (*entity.SyncRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SyncRun), args.Error(1)
}

func (m *MockSyncRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SyncRun), args.Error(1)
}

// MockRateResolver mocks the RateResolver interface
type MockRateResolver struct {
	mock.Mock
}

func (m *MockRateResolver) Resolve(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(entity.RateEntry), args.Error(1)
}

// MockRateSource mocks the RateSource interface
type MockRateSource struct {
	mock.Mock
	SourceName string
}

func (m *MockRateSource) Name() string {
	return m.SourceName
}

func (m *MockRateSource) Rate(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, bool) {
	args := m.Called(ctx, code)
	return args.Get(0).(entity.RateEntry), args.Bool(1)
}

// MockSnapshotFetcher mocks the SnapshotFetcher interface
type MockSnapshotFetcher struct {
	mock.Mock
}

func (m *MockSnapshotFetcher) FetchRates(ctx context.Context) (map[entity.CurrencyCode]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entity.CurrencyCode]float64), args.Error(1)
}
