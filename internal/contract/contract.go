// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/stationqc/schema"
)

// StoreManager defines the interface for managing the series and run stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetSeriesStore() SeriesStore
	GetRunStore() RunStore
}

// SeriesStore defines the operations on observation, model and neighbor data.
type SeriesStore interface {
	// --- Reading ---

	// FindPending returns rows inside window that are waiting for interpolation,
	// ordered by station, parameter and observation time. Empty filters select everything.
	FindPending(ctx context.Context, window schema.TimeRange, stations, params []int) ([]schema.Observation, error)

	// Observations returns the stored rows of one series inside r, ordered by time.
	Observations(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.Observation, error)

	// ModelValues returns the model series for one station and parameter inside r.
	ModelValues(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.ModelValue, error)

	// Neighbors returns the neighbor correlations ordered by rank. Correlations with
	// a sigma above maxSigma are dropped when maxSigma is positive.
	Neighbors(ctx context.Context, station, param int, maxSigma float64) ([]schema.NeighborCorrelation, error)

	// --- Writing ---

	// ApplyUpdates writes all updates in a single transaction.
	ApplyUpdates(ctx context.Context, updates []schema.ObservationUpdate) error

	// PutObservations upserts observation rows.
	PutObservations(ctx context.Context, rows []schema.Observation) error

	// PutModelValues upserts model rows.
	PutModelValues(ctx context.Context, rows []schema.ModelValue) error

	// PutNeighbors upserts neighbor correlations.
	PutNeighbors(ctx context.Context, rows []schema.NeighborCorrelation) error

	// GetStatus returns status information about the series store
	GetStatus() (schema.SeriesStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking fill runs and the values they wrote.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error

	// RecordFills stores the interpolated values written by a run
	RecordFills(runID int64, fills []schema.FillRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFills returns every recorded fill
	GetAllFills() ([]schema.FillRecord, error)

	// Close closes the underlying connection
	Close() error
}
