package iostore

import (
	"testing"
	"time"

	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginRun should return 0 for NoneBackend
	runID, err := store.BeginRun(time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	// Other operations should not error
	assert.NoError(t, store.EndRun(1, time.Now(), schema.RunSummary{Jobs: 1}))
	assert.NoError(t, store.RecordFills(1, []schema.FillRecord{{StationID: 1, ParamID: 211}}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(startTime, map[string]any{"window_start": "2025-06-01T00:00:00Z", "dry_run": false})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	good := 11.5
	fills := []schema.FillRecord{
		{StationID: 180, ParamID: 211, ObsTime: hour(1), Value: &good, Quality: "GOOD", Source: "spline"},
		{StationID: 180, ParamID: 211, ObsTime: hour(2), Quality: "FAILED", Source: "none"},
	}
	require.NoError(t, store.RecordFills(runID, fills))

	summary := schema.RunSummary{Jobs: 2, Skipped: 1, Good: 1, Bad: 0, Failed: 1}
	require.NoError(t, store.EndRun(runID, startTime.Add(1500*time.Millisecond), summary))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.True(t, run.StartTime.Equal(startTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, int32(2), run.TotalJobs)
	assert.Equal(t, int32(1), run.SkippedJobs)
	assert.Equal(t, int32(1), run.Failed)
	require.NotNil(t, run.ConfigParams)
	assert.Contains(t, *run.ConfigParams, "window_start")

	stored, err := store.GetAllFills()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].Value)
	assert.Equal(t, 11.5, *stored[0].Value)
	assert.Equal(t, "GOOD", stored[0].Quality)
	assert.True(t, stored[0].ObsTime.Equal(hour(1)))
	assert.Nil(t, stored[1].Value)
	assert.Equal(t, "FAILED", stored[1].Quality)
}

func TestRunStore_UnfinishedRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.BeginRun(time.Now(), nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun(42, time.Now(), schema.RunSummary{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "run 42")
}

func TestRunStore_GetStatus(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)

	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.BeginRun(first, nil)
	require.NoError(t, err)
	lastID, err := store.BeginRun(first.Add(time.Hour), nil)
	require.NoError(t, err)
	value := 1.0
	require.NoError(t, store.RecordFills(lastID, []schema.FillRecord{
		{StationID: 1, ParamID: 211, ObsTime: first, Value: &value, Quality: "BAD", Source: "spline"},
	}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(first.Add(time.Hour)))
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.Equal(t, int64(1), status.TotalFills)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
}
