package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// fillJob is one missing range of one series, ready to interpolate.
type fillJob struct {
	schema.Instrument
	Param schema.ParameterInfo

	// Missing spans the pending rows; only rows inside it are written.
	Missing schema.TimeRange

	// Range is Missing widened by the engine margin and clamped to the run window.
	Range schema.TimeRange
}

// missingRange is a run of pending rows of one series.
type missingRange struct {
	schema.Instrument
	schema.TimeRange
}

// groupMissing joins pending rows into missing ranges. Rows must be ordered by
// station, parameter and time. A row joins the open range of its series when it
// is at most gapLink hours after the range end.
func groupMissing(pending []schema.Observation, gapLink int) []missingRange {
	link := time.Duration(gapLink) * time.Hour
	var ranges []missingRange
	for _, o := range pending {
		t := o.ObsTime.UTC()
		if n := len(ranges); n > 0 {
			last := &ranges[n-1]
			if last.Instrument == o.Instrument() && !t.Before(last.End) && t.Sub(last.End) <= link {
				last.End = t
				continue
			}
		}
		ranges = append(ranges, missingRange{
			Instrument: o.Instrument(),
			TimeRange:  schema.TimeRange{Start: t, End: t},
		})
	}
	return ranges
}

// ownPending moves pending extreme rows onto the parameter they belong to, so
// that a missing hourly minimum or maximum plans a job for its parameter.
// The result is ordered by station, parameter and time without duplicate hours.
func ownPending(pending []schema.Observation, cfg *contract.Config) []schema.Observation {
	out := make([]schema.Observation, 0, len(pending))
	for _, o := range pending {
		if _, ok := cfg.Parameter(o.ParamID); !ok {
			if owner, ok := cfg.ExtremeOwner(o.ParamID); ok {
				o.ParamID = owner.ID
			}
		}
		out = append(out, o)
	}
	key := func(a, b schema.Observation) int {
		return cmp.Or(
			cmp.Compare(a.StationID, b.StationID),
			cmp.Compare(a.ParamID, b.ParamID),
			a.ObsTime.Compare(b.ObsTime),
		)
	}
	slices.SortStableFunc(out, key)
	return slices.CompactFunc(out, func(a, b schema.Observation) bool { return key(a, b) == 0 })
}

// planJobs turns pending rows into fill jobs. Ranges too close to the window
// edges are returned as skipped.
func planJobs(pending []schema.Observation, cfg *contract.Config) ([]fillJob, []schema.SkippedJob) {
	edge := time.Duration(cfg.EdgeHours) * time.Hour
	earliest := cfg.Window.Start.Add(edge)
	latest := cfg.Window.End.Add(-edge)

	var jobs []fillJob
	var skipped []schema.SkippedJob
	for _, mr := range groupMissing(ownPending(pending, cfg), cfg.GapLink) {
		pi, ok := cfg.Parameter(mr.ParamID)
		if !ok {
			continue
		}
		if mr.Start.Before(earliest) || mr.End.After(latest) {
			skipped = append(skipped, schema.SkippedJob{Instrument: mr.Instrument, Range: mr.TimeRange, Reason: schema.SkipTimeLimits})
			continue
		}
		jobs = append(jobs, fillJob{
			Instrument: mr.Instrument,
			Param:      pi,
			Missing:    mr.TimeRange,
			Range:      mr.Extend(cfg.ExtraData).Clamp(cfg.Window),
		})
	}
	return jobs, skipped
}

// splitPhases separates jobs that read another parameter's series. Those run
// after everything else so that they see fresh fills.
func splitPhases(jobs []fillJob) (independent, dependent []fillJob) {
	for _, j := range jobs {
		if _, ok := j.Param.DependsOn(); ok {
			dependent = append(dependent, j)
		} else {
			independent = append(independent, j)
		}
	}
	return independent, dependent
}
