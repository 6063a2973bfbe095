package iostore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreManager(t *testing.T) {
	series, err := NewSeriesStore(schema.NoneBackend, "")
	require.NoError(t, err)

	m := NewStoreManager(series, nil)
	assert.Equal(t, series, m.GetSeriesStore())
	assert.Nil(t, m.GetRunStore())
}

func TestCloseStores(t *testing.T) {
	series := &MockSeriesStore{}
	series.On("Close").Return(errors.New("disk gone"))
	runs := &MockRunStore{}
	runs.On("Close").Return(errors.New("connection reset"))

	Manager.series, Manager.runs = series, runs
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		Manager.series, Manager.runs = nil, nil
		closeOnce = sync.Once{}
	})

	err := CloseStores()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Contains(t, err.Error(), "connection reset")

	// Later calls are no-ops
	assert.NoError(t, CloseStores())
	series.AssertNumberOfCalls(t, "Close", 1)
	runs.AssertNumberOfCalls(t, "Close", 1)
}

func TestClearSeries_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "series.db")
	store, err := NewSeriesStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearSeries(schema.SQLiteBackend, dbPath, dbPath))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing a missing file is fine
	assert.NoError(t, ClearSeries(schema.SQLiteBackend, dbPath, dbPath))
}

func TestClearRuns(t *testing.T) {
	assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	assert.Error(t, ClearRuns(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearRuns("oracle", "", ""))
}

func TestExecuteRunExport(t *testing.T) {
	t.Run("no output file", func(t *testing.T) {
		err := ExecuteRunExport(&MockRunStore{}, "")
		assert.Error(t, err)
	})

	t.Run("disabled tracking", func(t *testing.T) {
		err := ExecuteRunExport(nil, "out")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
	})

	t.Run("empty store", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.RunStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExecuteRunExport(store, filepath.Join(t.TempDir(), "out"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no run data")
		store.AssertExpectations(t)
	})

	t.Run("writes both files", func(t *testing.T) {
		store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		runID, err := store.BeginRun(start, map[string]any{"dry_run": false})
		require.NoError(t, err)
		value := 3.5
		require.NoError(t, store.RecordFills(runID, []schema.FillRecord{
			{StationID: 180, ParamID: 211, ObsTime: start, Value: &value, Quality: "GOOD", Source: "spline"},
		}))
		require.NoError(t, store.EndRun(runID, start.Add(time.Second), schema.RunSummary{Jobs: 1, Good: 1}))

		out := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteRunExport(store, out))

		for _, suffix := range []string{".runs.parquet", ".fills.parquet"} {
			info, err := os.Stat(out + suffix)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		}
	})
}

func TestPrintStatus(t *testing.T) {
	// Smoke test: printing must not panic on empty or populated status
	PrintSeriesStatus(schema.SeriesStatus{Backend: "none"})
	PrintSeriesStatus(schema.SeriesStatus{
		Backend: "sqlite", Connected: true, Stations: 1,
		StatusCounts: map[string]int64{"ok": 2, "missing": 1},
		TableSizes:   map[string]int64{observationsTable: 3},
	})
	PrintRunStatus(schema.RunStatus{Backend: "sqlite", Connected: true, TotalRuns: 1, TableSizes: map[string]int64{runsTable: 1}})
}
