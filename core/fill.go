package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/stationqc/core/algo"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// jobOutcome is what one worker produced for one job.
type jobOutcome struct {
	updates []schema.ObservationUpdate
	fills   []schema.FillRecord
	skip    *schema.SkippedJob
	err     error
}

// skipReasons maps job-level errors onto the reason reported for the skipped job.
var skipReasons = map[error]schema.SkipReason{
	ErrNoRow:         schema.SkipNoRow,
	ErrDownStep:      schema.SkipDownStep,
	ErrNoTemperature: schema.SkipNoTA,
}

// newEngine builds the engine tuning from the run configuration.
func newEngine(cfg *contract.Config) (*algo.Engine, error) {
	return algo.NewEngine(algo.Options{
		AkimaFirst:     cfg.AkimaFirst,
		ExtraData:      cfg.ExtraData,
		NeighborCap:    cfg.NeighborCap,
		SplineDistance: algo.DefaultSplineDistance,
	})
}

// runJob loads, interpolates and converts one job into row updates.
func runJob(ctx context.Context, store contract.SeriesStore, cfg *contract.Config, engine *algo.Engine, job fillJob, runID int64) jobOutcome {
	series, err := loadJobSeries(ctx, store, cfg, job)
	if err != nil {
		for sentinel, reason := range skipReasons {
			if errors.Is(err, sentinel) {
				return jobOutcome{skip: &schema.SkippedJob{Instrument: job.Instrument, Range: job.Missing, Reason: reason}}
			}
		}
		return jobOutcome{err: fmt.Errorf("job %d/%d %s: %w", job.StationID, job.ParamID, job.Missing, err)}
	}

	out, err := engine.Run(series.sc)
	if err != nil {
		return jobOutcome{err: fmt.Errorf("job %d/%d %s: %w", job.StationID, job.ParamID, job.Missing, err)}
	}

	var res jobOutcome
	for t, row := range series.rows {
		if row.ObsTime.Before(job.Missing.Start) || row.ObsTime.After(job.Missing.End) {
			continue
		}
		if !row.Status.NeedsInterpolation() || out[t].Quality == algo.Observation {
			continue
		}

		ip := out[t]
		var value *float64
		if ip.Quality == algo.Good || ip.Quality == algo.Bad {
			v := ip.Value
			ok := true
			if series.ta != nil {
				v, ok = series.humidity(t, v)
			}
			if ok {
				v = job.Param.Constrain(v)
				value = &v
			} else {
				ip = algo.Interpolation{Quality: algo.Failed, Source: algo.SourceNone}
			}
		}
		res.record(row, ip, value, runID)
	}

	if series.sc.MinMax == nil {
		return res
	}
	mins, maxs, err := engine.ReconstructMinMax(series.sc, out)
	if err != nil {
		return jobOutcome{err: fmt.Errorf("job %d/%d %s extremes: %w", job.StationID, job.ParamID, job.Missing, err)}
	}
	// An extreme covers the hour ending at its time, so the hour after the gap is written too.
	last := job.Missing.End.Add(time.Hour)
	for _, es := range series.extremes {
		verdicts := mins
		if es.isMax {
			verdicts = maxs
		}
		for t, row := range es.rows {
			if !es.found[t] || !es.side[t].NeedsInterpolation {
				continue
			}
			if row.ObsTime.Before(job.Missing.Start) || row.ObsTime.After(last) {
				continue
			}
			ip := verdicts[t]
			var value *float64
			if ip.Quality == algo.Bad {
				v := job.Param.Constrain(ip.Value)
				value = &v
			}
			res.record(row, ip, value, runID)
		}
	}
	return res
}

// record adds the update and fill record for one written row.
func (o *jobOutcome) record(row schema.Observation, ip algo.Interpolation, value *float64, runID int64) {
	status := schema.StatusFillFailed
	switch ip.Quality {
	case algo.Good:
		status = schema.StatusFilledGood
	case algo.Bad:
		status = schema.StatusFilledBad
	}

	o.updates = append(o.updates, schema.ObservationUpdate{
		StationID: row.StationID,
		ParamID:   row.ParamID,
		ObsTime:   row.ObsTime,
		Corrected: value,
		Status:    status,
	})
	o.fills = append(o.fills, schema.FillRecord{
		RunID:     runID,
		StationID: row.StationID,
		ParamID:   row.ParamID,
		ObsTime:   row.ObsTime,
		Value:     value,
		Quality:   ip.Quality.String(),
		Source:    ip.Source.String(),
	})
}

// runPhase runs jobs on a pool of workers. Outcomes keep the order of jobs.
func runPhase(ctx context.Context, store contract.SeriesStore, cfg *contract.Config, engine *algo.Engine, jobs []fillJob, runID int64) []jobOutcome {
	outcomes := make([]jobOutcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	jobCh := make(chan int, len(jobs))
	var wg sync.WaitGroup
	for range max(1, min(cfg.Workers, len(jobs))) {
		wg.Go(func() {
			for i := range jobCh {
				if err := ctx.Err(); err != nil {
					outcomes[i] = jobOutcome{err: err}
					continue
				}
				outcomes[i] = runJob(ctx, store, cfg, engine, jobs[i], runID)
			}
		})
	}

	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()
	return outcomes
}

// GetFillResults plans and runs every job of the configured window.
// Rows are written back after each phase unless the run is a dry run.
func GetFillResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.FillResult, error) {
	store := mgr.GetSeriesStore()
	if store == nil {
		return nil, errors.New("series store is not configured")
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	// --- 0. Find and plan ---
	pending, err := store.FindPending(ctx, cfg.Window, cfg.Stations, cfg.PendingParamIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to find pending rows: %w", err)
	}
	jobs, skipped := planJobs(pending, cfg)

	result := &schema.FillResult{
		Window:  cfg.Window,
		DryRun:  cfg.DryRun,
		Fills:   []schema.FillRecord{},
		Skipped: skipped,
	}

	// --- 1. Begin Run Tracking (if configured) ---
	runStore := mgr.GetRunStore()
	trackRun := runStore != nil && !cfg.DryRun
	if trackRun {
		runID, err := runStore.BeginRun(time.Now(), cfg.RunParams())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			trackRun = false
		} else {
			ctx = withRunID(ctx, runID)
			result.RunID = runID
		}
	}

	// --- 2. Interpolate in two phases ---
	independent, dependent := splitPhases(jobs)
	for _, phase := range [][]fillJob{independent, dependent} {
		var updates []schema.ObservationUpdate
		for _, o := range runPhase(ctx, store, cfg, engine, phase, result.RunID) {
			if o.err != nil {
				return nil, o.err
			}
			if o.skip != nil {
				result.Skipped = append(result.Skipped, *o.skip)
				continue
			}
			updates = append(updates, o.updates...)
			result.Fills = append(result.Fills, o.fills...)
		}
		if !cfg.DryRun && len(updates) > 0 {
			if err := store.ApplyUpdates(ctx, updates); err != nil {
				return nil, fmt.Errorf("failed to apply updates: %w", err)
			}
		}
	}

	sortFills(result.Fills)
	sortSkipped(result.Skipped)
	result.Summary = summarize(len(jobs)+len(skipped), result)

	// --- 3. End Run Tracking ---
	if runID, ok := getRunID(ctx); ok && trackRun {
		if err := runStore.RecordFills(runID, result.Fills); err != nil {
			contract.LogWarn("Failed to record run fills", err)
		}
		if err := runStore.EndRun(runID, time.Now(), result.Summary); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	return result, nil
}

// summarize counts the outcome of a run. Planned includes the jobs skipped at planning time.
func summarize(planned int, result *schema.FillResult) schema.RunSummary {
	s := schema.RunSummary{Jobs: planned, Skipped: len(result.Skipped)}
	for _, f := range result.Fills {
		switch f.Quality {
		case contract.GoodValue:
			s.Good++
		case contract.BadValue:
			s.Bad++
		default:
			s.Failed++
		}
	}
	return s
}

func sortFills(fills []schema.FillRecord) {
	slices.SortFunc(fills, func(a, b schema.FillRecord) int {
		return cmp.Or(
			cmp.Compare(a.StationID, b.StationID),
			cmp.Compare(a.ParamID, b.ParamID),
			a.ObsTime.Compare(b.ObsTime),
		)
	})
}

func sortSkipped(skipped []schema.SkippedJob) {
	slices.SortFunc(skipped, func(a, b schema.SkippedJob) int {
		return cmp.Or(
			cmp.Compare(a.StationID, b.StationID),
			cmp.Compare(a.ParamID, b.ParamID),
			a.Range.Start.Compare(b.Range.Start),
		)
	})
}
