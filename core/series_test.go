package core

import (
	"context"
	"testing"

	"github.com/huangsam/stationqc/core/algo"
	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterSample(t *testing.T) {
	tests := []struct {
		status schema.ObservationStatus
		usable bool
		needs  bool
	}{
		{schema.StatusOK, true, false},
		{schema.StatusMissing, false, true},
		{schema.StatusRejected, false, true},
		{schema.StatusFilledGood, false, false},
		{schema.StatusFilledBad, false, true},
		{schema.StatusFillFailed, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := centerSample(schema.Observation{Corrected: 4.5, Status: tt.status})
			assert.Equal(t, tt.usable, c.Usable())
			assert.Equal(t, tt.needs, c.NeedsInterpolation)
			if tt.usable {
				assert.Equal(t, 4.5, c.Observed.Value)
			}
		})
	}
}

func TestCenterSampleKeepsEarlierFill(t *testing.T) {
	c := centerSample(schema.Observation{Corrected: 4.5, Status: schema.StatusFilledGood})
	assert.False(t, c.Observed.Present)
	assert.Equal(t, algo.Present(4.5), c.Filled)

	sc := algo.NewSeriesContext(10, 10)
	for h := range sc.Duration {
		sc.Center[h] = centerSample(schema.Observation{Corrected: float64(h), Status: schema.StatusOK})
	}
	sc.Center[4] = centerSample(schema.Observation{Status: schema.StatusMissing})
	sc.Center[5] = c
	e, err := algo.NewEngine(algo.DefaultOptions())
	require.NoError(t, err)
	out, err := e.Run(sc)
	require.NoError(t, err)

	assert.Equal(t, algo.Interpolation{Value: 4.5, Quality: algo.Good, Source: algo.SourceObservation}, out[5])
}

func TestCheckDownStep(t *testing.T) {
	ok := func(v float64) algo.CenterSample { return algo.CenterSample{Observed: algo.Present(v)} }
	gap := algo.CenterSample{Observed: algo.Missing(), NeedsInterpolation: true}

	assert.NoError(t, checkDownStep([]algo.CenterSample{ok(10), ok(12), gap, ok(12)}, 50))
	assert.NoError(t, checkDownStep([]algo.CenterSample{ok(100), ok(50)}, 50), "a drop equal to the threshold is allowed")
	assert.NoError(t, checkDownStep(nil, 50))

	err := checkDownStep([]algo.CenterSample{ok(100), gap, gap, ok(40)}, 50)
	assert.ErrorIs(t, err, ErrDownStep)
}

func TestDewPointSample(t *testing.T) {
	assert.False(t, dewPointSample(algo.Missing(), algo.Present(50)).Present)
	assert.False(t, dewPointSample(algo.Present(20), algo.Missing()).Present)
	assert.False(t, dewPointSample(algo.Present(20), algo.Present(100)).Present)

	s := dewPointSample(algo.Present(20), algo.Present(50))
	require.True(t, s.Present)
	want, _ := DewPoint(20, 50)
	assert.Equal(t, want, s.Value)
}

func TestLoadJobSeries(t *testing.T) {
	series, _ := newFillStores(t, false)
	seedFillScenario(t, series)
	cfg := fillConfig(11)
	ctx := context.Background()

	jobs, _ := planJobs([]schema.Observation{pendingRow(180, schema.ParamTA, 5), pendingRow(180, schema.ParamTA, 6)}, cfg)
	require.Len(t, jobs, 1)

	js, err := loadJobSeries(ctx, series, cfg, jobs[0])
	require.NoError(t, err)
	assert.Equal(t, 8, js.sc.Duration) // hours 2..9
	assert.Len(t, js.rows, 8)
	assert.Nil(t, js.ta)
	assert.True(t, js.sc.Center[0].Usable())
	assert.True(t, js.sc.Center[3].NeedsInterpolation)
	require.Len(t, js.sc.Neighbors, 1)
	assert.Equal(t, algo.Present(14), js.sc.Neighbors[0].Observed[0])
	assert.False(t, js.sc.Model[0].Present)
}

func TestLoadJobSeries_ModelValues(t *testing.T) {
	series, _ := newFillStores(t, false)
	seedFillScenario(t, series)
	require.NoError(t, series.PutModelValues(context.Background(), []schema.ModelValue{
		{StationID: 180, ParamID: schema.ParamTA, ObsTime: at(4), Value: 13.5},
	}))
	cfg := fillConfig(11)

	jobs, _ := planJobs([]schema.Observation{pendingRow(180, schema.ParamTA, 5)}, cfg)
	require.Len(t, jobs, 1)
	js, err := loadJobSeries(context.Background(), series, cfg, jobs[0])
	require.NoError(t, err)
	assert.Equal(t, algo.Present(13.5), js.sc.Model[2])
}

func TestLoadJobSeries_NoRow(t *testing.T) {
	series, _ := newFillStores(t, false)
	seedFillScenario(t, series)
	cfg := fillConfig(11)

	jobs, _ := planJobs([]schema.Observation{pendingRow(190, schema.ParamTA, 6)}, cfg)
	require.Len(t, jobs, 1)
	_, err := loadJobSeries(context.Background(), series, cfg, jobs[0])
	assert.ErrorIs(t, err, ErrNoRow)
}

func TestLoadJobSeries_DownStep(t *testing.T) {
	series, _ := newFillStores(t, false)
	var rows []schema.Observation
	for h := range 12 {
		switch {
		case h == 5:
			rows = append(rows, pendingRow(180, schema.ParamRA, h))
		case h < 5:
			rows = append(rows, okRow(180, schema.ParamRA, h, 80))
		default:
			rows = append(rows, okRow(180, schema.ParamRA, h, 10))
		}
	}
	require.NoError(t, series.PutObservations(context.Background(), rows))
	cfg := fillConfig(11)

	jobs, _ := planJobs([]schema.Observation{pendingRow(180, schema.ParamRA, 5)}, cfg)
	require.Len(t, jobs, 1)
	_, err := loadJobSeries(context.Background(), series, cfg, jobs[0])
	assert.ErrorIs(t, err, ErrDownStep)

	out := runJob(context.Background(), series, cfg, nil, jobs[0], 0)
	require.NotNil(t, out.skip)
	assert.Equal(t, schema.SkipDownStep, out.skip.Reason)
}

func TestLoadJobSeries_NoTemperature(t *testing.T) {
	series, _ := newFillStores(t, false)
	var rows []schema.Observation
	for h := range 12 {
		if h == 6 {
			rows = append(rows, pendingRow(200, schema.ParamUU, h))
		} else {
			rows = append(rows, okRow(200, schema.ParamUU, h, 70))
		}
	}
	require.NoError(t, series.PutObservations(context.Background(), rows))
	cfg := fillConfig(11)

	jobs, _ := planJobs([]schema.Observation{pendingRow(200, schema.ParamUU, 6)}, cfg)
	require.Len(t, jobs, 1)
	_, err := loadJobSeries(context.Background(), series, cfg, jobs[0])
	assert.ErrorIs(t, err, ErrNoTemperature)
}

func TestLoadJobSeries_DewPoint(t *testing.T) {
	series, _ := newFillStores(t, false)
	seedFillScenario(t, series)
	cfg := fillConfig(11)

	jobs, _ := planJobs([]schema.Observation{pendingRow(180, schema.ParamUU, 6)}, cfg)
	require.Len(t, jobs, 1)
	js, err := loadJobSeries(context.Background(), series, cfg, jobs[0])
	require.NoError(t, err)
	require.Len(t, js.ta, 7)

	// Hour 3 has TA 13 and UU 50.
	want, _ := DewPoint(13, 50)
	assert.Equal(t, algo.Present(want), js.sc.Center[0].Observed)
	// Hour 5 has no temperature yet.
	assert.False(t, js.sc.Center[2].Observed.Present)

	uu, ok := js.humidity(0, want)
	assert.True(t, ok)
	assert.InDelta(t, 50, uu, 1e-9)
	_, ok = js.humidity(2, want)
	assert.False(t, ok)
}
