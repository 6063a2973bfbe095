package core

import (
	"testing"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fillBase = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// at returns the i-th hour after fillBase.
func at(i int) time.Time {
	return fillBase.Add(time.Duration(i) * time.Hour)
}

func fillConfig(lastHour int) *contract.Config {
	return &contract.Config{
		Window:      schema.NewTimeRange(at(0), at(lastHour)),
		Parameters:  schema.DefaultParameters(),
		ExtraData:   3,
		NeighborCap: 5,
		GapLink:     3,
		EdgeHours:   2,
		RAThreshold: 50,
		Workers:     2,
		Precision:   2,
		Output:      schema.TextOut,
	}
}

func pendingRow(station, param, h int) schema.Observation {
	return schema.Observation{StationID: station, ParamID: param, ObsTime: at(h), Original: -32767, Corrected: -32767, Status: schema.StatusMissing}
}

func TestGroupMissing(t *testing.T) {
	pending := []schema.Observation{
		pendingRow(180, 211, 5),
		pendingRow(180, 211, 6),
		pendingRow(180, 211, 9), // within gap link of 6
		pendingRow(180, 211, 13),
		pendingRow(180, 262, 13),
		pendingRow(190, 262, 14),
	}

	ranges := groupMissing(pending, 3)
	require.Len(t, ranges, 4)
	assert.Equal(t, schema.Instrument{StationID: 180, ParamID: 211}, ranges[0].Instrument)
	assert.Equal(t, schema.TimeRange{Start: at(5), End: at(9)}, ranges[0].TimeRange)
	assert.Equal(t, schema.TimeRange{Start: at(13), End: at(13)}, ranges[1].TimeRange)
	assert.Equal(t, 262, ranges[2].ParamID)
	assert.Equal(t, 190, ranges[3].StationID)
}

func TestGroupMissing_Empty(t *testing.T) {
	assert.Empty(t, groupMissing(nil, 3))
}

func TestPlanJobs(t *testing.T) {
	cfg := fillConfig(23)
	pending := []schema.Observation{
		pendingRow(180, 211, 1),  // inside the leading edge
		pendingRow(180, 211, 10), // regular job
		pendingRow(180, 211, 11),
		pendingRow(180, 262, 20), // touches the trailing margin
		pendingRow(180, 262, 22), // inside the trailing edge
		pendingRow(180, 999, 10), // unknown parameter
	}

	jobs, skipped := planJobs(pending, cfg)

	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, schema.Instrument{StationID: 180, ParamID: 211}, job.Instrument)
	assert.Equal(t, "TA", job.Param.Name)
	assert.Equal(t, schema.TimeRange{Start: at(10), End: at(11)}, job.Missing)
	assert.Equal(t, schema.TimeRange{Start: at(7), End: at(14)}, job.Range)

	require.Len(t, skipped, 2)
	for _, s := range skipped {
		assert.Equal(t, schema.SkipTimeLimits, s.Reason)
	}
	assert.Equal(t, at(1), skipped[0].Range.Start)
	assert.Equal(t, schema.TimeRange{Start: at(20), End: at(22)}, skipped[1].Range)
}

func TestPlanJobs_ClampsToWindow(t *testing.T) {
	cfg := fillConfig(12)
	cfg.ExtraData = 5

	jobs, skipped := planJobs([]schema.Observation{pendingRow(180, 211, 3)}, cfg)
	assert.Empty(t, skipped)
	require.Len(t, jobs, 1)
	assert.Equal(t, schema.TimeRange{Start: at(0), End: at(8)}, jobs[0].Range)
}

func TestPlanJobs_EdgeBoundary(t *testing.T) {
	cfg := fillConfig(12)

	// Exactly edge-hours away from both ends is still planned.
	jobs, skipped := planJobs([]schema.Observation{pendingRow(180, 211, 2), pendingRow(180, 211, 10)}, cfg)
	assert.Empty(t, skipped)
	assert.Len(t, jobs, 2)
}

func TestSplitPhases(t *testing.T) {
	cfg := fillConfig(23)
	jobs, _ := planJobs([]schema.Observation{
		pendingRow(180, 211, 10),
		pendingRow(180, 262, 10),
		pendingRow(180, 104, 10),
	}, cfg)
	require.Len(t, jobs, 3)

	independent, dependent := splitPhases(jobs)
	assert.Len(t, independent, 2)
	require.Len(t, dependent, 1)
	assert.Equal(t, 262, dependent[0].ParamID)
}

func TestPlanJobs_ExtremesPlanTheirParameter(t *testing.T) {
	cfg := fillConfig(23)
	pending := []schema.Observation{
		pendingRow(180, schema.ParamTA, 10),
		pendingRow(180, schema.ParamTA, 11),
		pendingRow(180, schema.ParamTAN, 11), // same hour as a TA row
		pendingRow(180, schema.ParamTAX, 12),
		pendingRow(190, schema.ParamTAN, 15), // extreme only
	}

	jobs, skipped := planJobs(pending, cfg)
	assert.Empty(t, skipped)
	require.Len(t, jobs, 2)

	assert.Equal(t, schema.Instrument{StationID: 180, ParamID: schema.ParamTA}, jobs[0].Instrument)
	assert.Equal(t, schema.TimeRange{Start: at(10), End: at(12)}, jobs[0].Missing)
	assert.Equal(t, schema.Instrument{StationID: 190, ParamID: schema.ParamTA}, jobs[1].Instrument)
	assert.Equal(t, schema.TimeRange{Start: at(15), End: at(15)}, jobs[1].Missing)
}
