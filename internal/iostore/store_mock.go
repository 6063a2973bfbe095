package iostore

import (
	"context"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSeriesStore implements the StoreManager interface.
func (m *MockStoreManager) GetSeriesStore() contract.SeriesStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SeriesStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// RecordFills implements the RunStore interface.
func (m *MockRunStore) RecordFills(runID int64, fills []schema.FillRecord) error {
	args := m.Called(runID, fills)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllFills implements the RunStore interface.
func (m *MockRunStore) GetAllFills() ([]schema.FillRecord, error) {
	args := m.Called()
	fills, _ := args.Get(0).([]schema.FillRecord)
	return fills, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSeriesStore is a mock implementation of SeriesStore for testing.
type MockSeriesStore struct {
	mock.Mock
}

var _ contract.SeriesStore = &MockSeriesStore{} // Compile-time check

// FindPending implements the SeriesStore interface.
func (m *MockSeriesStore) FindPending(ctx context.Context, window schema.TimeRange, stations, params []int) ([]schema.Observation, error) {
	args := m.Called(ctx, window, stations, params)
	rows, _ := args.Get(0).([]schema.Observation)
	return rows, args.Error(1)
}

// Observations implements the SeriesStore interface.
func (m *MockSeriesStore) Observations(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.Observation, error) {
	args := m.Called(ctx, station, param, r)
	rows, _ := args.Get(0).([]schema.Observation)
	return rows, args.Error(1)
}

// ModelValues implements the SeriesStore interface.
func (m *MockSeriesStore) ModelValues(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.ModelValue, error) {
	args := m.Called(ctx, station, param, r)
	rows, _ := args.Get(0).([]schema.ModelValue)
	return rows, args.Error(1)
}

// Neighbors implements the SeriesStore interface.
func (m *MockSeriesStore) Neighbors(ctx context.Context, station, param int, maxSigma float64) ([]schema.NeighborCorrelation, error) {
	args := m.Called(ctx, station, param, maxSigma)
	rows, _ := args.Get(0).([]schema.NeighborCorrelation)
	return rows, args.Error(1)
}

// ApplyUpdates implements the SeriesStore interface.
func (m *MockSeriesStore) ApplyUpdates(ctx context.Context, updates []schema.ObservationUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// PutObservations implements the SeriesStore interface.
func (m *MockSeriesStore) PutObservations(ctx context.Context, rows []schema.Observation) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

// PutModelValues implements the SeriesStore interface.
func (m *MockSeriesStore) PutModelValues(ctx context.Context, rows []schema.ModelValue) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

// PutNeighbors implements the SeriesStore interface.
func (m *MockSeriesStore) PutNeighbors(ctx context.Context, rows []schema.NeighborCorrelation) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

// GetStatus implements the SeriesStore interface.
func (m *MockSeriesStore) GetStatus() (schema.SeriesStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.SeriesStatus), args.Error(1)
}

// Close implements the SeriesStore interface.
func (m *MockSeriesStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
