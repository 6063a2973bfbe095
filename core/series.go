package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/stationqc/core/algo"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// Job-level conditions that skip a job instead of failing the run.
var (
	ErrNoRow         = errors.New("series has an hour without an observation row")
	ErrDownStep      = errors.New("accumulated series decreases")
	ErrNoTemperature = errors.New("no temperature for the dew point conversion")
)

// jobSeries is the loaded input of one job.
type jobSeries struct {
	rows     []schema.Observation // one per hour of the job range
	sc       *algo.SeriesContext
	ta       []algo.Sample // station temperature, set for dew point jobs only
	extremes []extremeSeries
}

// extremeSeries is the stored minimum or maximum series of a job.
type extremeSeries struct {
	isMax bool
	rows  []schema.Observation
	found []bool
	side  []algo.CenterSample // shared with the series context
}

// loadJobSeries reads everything the engine needs for job from store.
func loadJobSeries(ctx context.Context, store contract.SeriesStore, cfg *contract.Config, job fillJob) (*jobSeries, error) {
	r := job.Range
	obs, err := store.Observations(ctx, job.StationID, job.ParamID, r)
	if err != nil {
		return nil, err
	}

	rows := make([]schema.Observation, r.Hours())
	found := make([]bool, len(rows))
	for _, o := range obs {
		if i, ok := r.Index(o.ObsTime); ok {
			rows[i], found[i] = o, true
		}
	}
	for i, ok := range found {
		if !ok {
			return nil, fmt.Errorf("%w at %s", ErrNoRow, r.At(i).Format(contract.DateTimeFormat))
		}
	}

	sc := algo.NewSeriesContext(len(rows), job.Param.MaxOffset)
	for i, o := range rows {
		sc.Center[i] = centerSample(o)
	}
	if job.Param.Accumulated {
		if err := checkDownStep(sc.Center, cfg.RAThreshold); err != nil {
			return nil, err
		}
	}

	if sc.Model, err = modelSeries(ctx, store, job.StationID, job.ParamID, r); err != nil {
		return nil, err
	}

	neighbors, err := store.Neighbors(ctx, job.StationID, job.ParamID, job.Param.MaxSigma)
	if err != nil {
		return nil, err
	}
	neighborIDs := make([]int, len(neighbors))
	for n, nc := range neighbors {
		idx := sc.AddNeighbor(algo.Correlation{Slope: nc.Slope, Offset: nc.Offset, Sigma: nc.Sigma})
		if sc.Neighbors[idx].Observed, err = observedSeries(ctx, store, nc.NeighborID, job.ParamID, r, schema.ObservationStatus.Trusted); err != nil {
			return nil, err
		}
		neighborIDs[n] = nc.NeighborID
	}

	series := &jobSeries{rows: rows, sc: sc}
	if ta, ok := job.Param.DependsOn(); ok {
		if err := series.toDewPoint(ctx, store, job, ta, neighborIDs); err != nil {
			return nil, err
		}
	} else if job.Param.HasMinMax() {
		if err := series.loadMinMax(ctx, store, job); err != nil {
			return nil, err
		}
	}
	return series, nil
}

// loadMinMax reads the hourly extremes of the job parameter. Extremes that
// follow an hour without both of them are flagged for reconstruction.
func (s *jobSeries) loadMinMax(ctx context.Context, store contract.SeriesStore, job fillJob) error {
	r := job.Range
	mm := &algo.MinMax{}
	for _, side := range []struct {
		param int
		isMax bool
		dst   *[]algo.CenterSample
	}{
		{job.Param.MinParam, false, &mm.Min},
		{job.Param.MaxParam, true, &mm.Max},
	} {
		if side.param <= 0 {
			continue
		}
		obs, err := store.Observations(ctx, job.StationID, side.param, r)
		if err != nil {
			return err
		}
		if len(obs) == 0 {
			continue
		}
		es := extremeSeries{
			isMax: side.isMax,
			rows:  make([]schema.Observation, r.Hours()),
			found: make([]bool, r.Hours()),
			side:  make([]algo.CenterSample, r.Hours()),
		}
		for _, o := range obs {
			if i, ok := r.Index(o.ObsTime); ok {
				es.rows[i], es.found[i] = o, true
				es.side[i] = centerSample(o)
			}
		}
		*side.dst = es.side
		s.extremes = append(s.extremes, es)
	}
	if len(s.extremes) == 0 {
		return nil
	}
	mm.DiscardUnreliable()
	s.sc.MinMax = mm
	return nil
}

// centerSample maps a stored row onto the engine's view of it.
func centerSample(o schema.Observation) algo.CenterSample {
	switch o.Status {
	case schema.StatusOK:
		return algo.CenterSample{Observed: algo.Present(o.Corrected)}
	case schema.StatusFilledGood:
		return algo.CenterSample{Observed: algo.Missing(), Filled: algo.Present(o.Corrected)}
	default:
		return algo.CenterSample{Observed: algo.Missing(), NeedsInterpolation: true}
	}
}

// checkDownStep rejects series where a usable value drops more than threshold
// below the previous usable value.
func checkDownStep(center []algo.CenterSample, threshold float64) error {
	var last float64
	haveLast := false
	for t, c := range center {
		if !c.Usable() {
			continue
		}
		v := c.Observed.Value
		if haveLast && v < last-threshold {
			return fmt.Errorf("%w: %g to %g at hour %d", ErrDownStep, last, v, t)
		}
		last, haveLast = v, true
	}
	return nil
}

// observedSeries returns the corrected values of a series, keeping only rows accepted by use.
func observedSeries(ctx context.Context, store contract.SeriesStore, station, param int, r schema.TimeRange, use func(schema.ObservationStatus) bool) ([]algo.Sample, error) {
	obs, err := store.Observations(ctx, station, param, r)
	if err != nil {
		return nil, err
	}
	out := make([]algo.Sample, r.Hours())
	for _, o := range obs {
		if i, ok := r.Index(o.ObsTime); ok && use(o.Status) {
			out[i] = algo.Present(o.Corrected)
		}
	}
	return out, nil
}

// modelSeries returns the background model values of a series.
func modelSeries(ctx context.Context, store contract.SeriesStore, station, param int, r schema.TimeRange) ([]algo.Sample, error) {
	values, err := store.ModelValues(ctx, station, param, r)
	if err != nil {
		return nil, err
	}
	out := make([]algo.Sample, r.Hours())
	for _, mv := range values {
		if i, ok := r.Index(mv.ObsTime); ok {
			out[i] = algo.Present(mv.Value)
		}
	}
	return out, nil
}

// toDewPoint moves every humidity series of the job into the dew point domain.
func (s *jobSeries) toDewPoint(ctx context.Context, store contract.SeriesStore, job fillJob, ta int, neighborIDs []int) error {
	r := job.Range
	var err error
	if s.ta, err = observedSeries(ctx, store, job.StationID, ta, r, schema.ObservationStatus.HasValue); err != nil {
		return err
	}
	if !anyPresent(s.ta) {
		return ErrNoTemperature
	}
	for t := range s.sc.Center {
		c := &s.sc.Center[t]
		c.Observed = dewPointSample(s.ta[t], c.Observed)
		if c.Filled.Present {
			c.Filled = dewPointSample(s.ta[t], c.Filled)
		}
	}

	taModel, err := modelSeries(ctx, store, job.StationID, ta, r)
	if err != nil {
		return err
	}
	for t := range s.sc.Model {
		s.sc.Model[t] = dewPointSample(taModel[t], s.sc.Model[t])
	}

	for n, id := range neighborIDs {
		taNeighbor, err := observedSeries(ctx, store, id, ta, r, schema.ObservationStatus.HasValue)
		if err != nil {
			return err
		}
		observed := s.sc.Neighbors[n].Observed
		for t := range observed {
			observed[t] = dewPointSample(taNeighbor[t], observed[t])
		}
	}
	return nil
}

// humidity converts a dew point fill at hour t back to relative humidity.
func (s *jobSeries) humidity(t int, td float64) (float64, bool) {
	if !s.ta[t].Present {
		return 0, false
	}
	return Humidity(s.ta[t].Value, td)
}

func dewPointSample(ta, uu algo.Sample) algo.Sample {
	if !ta.Present || !uu.Present {
		return algo.Missing()
	}
	td, ok := DewPoint(ta.Value, uu.Value)
	if !ok {
		return algo.Missing()
	}
	return algo.Present(td)
}

func anyPresent(samples []algo.Sample) bool {
	for _, s := range samples {
		if s.Present {
			return true
		}
	}
	return false
}
