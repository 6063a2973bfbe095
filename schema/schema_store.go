package schema

import "time"

// TimeRange is an inclusive range of whole hours.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange returns the range between start and end truncated to the hour.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start.UTC().Truncate(time.Hour), End: end.UTC().Truncate(time.Hour)}
}

// Hours returns the number of hourly slots in the range, both ends included.
func (r TimeRange) Hours() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start)/time.Hour) + 1
}

// Index returns the hour slot of t within the range.
func (r TimeRange) Index(t time.Time) (int, bool) {
	if t.Before(r.Start) || t.After(r.End) {
		return 0, false
	}
	d := t.Sub(r.Start)
	if d%time.Hour != 0 {
		return 0, false
	}
	return int(d / time.Hour), true
}

// At returns the time of slot i.
func (r TimeRange) At(i int) time.Time {
	return r.Start.Add(time.Duration(i) * time.Hour)
}

// Extend widens the range by hours on both sides.
func (r TimeRange) Extend(hours int) TimeRange {
	d := time.Duration(hours) * time.Hour
	return TimeRange{Start: r.Start.Add(-d), End: r.End.Add(d)}
}

// Clamp limits the range to outer.
func (r TimeRange) Clamp(outer TimeRange) TimeRange {
	out := r
	if out.Start.Before(outer.Start) {
		out.Start = outer.Start
	}
	if out.End.After(outer.End) {
		out.End = outer.End
	}
	return out
}

// String formats the range for logs and tables.
func (r TimeRange) String() string {
	return r.Start.Format(time.RFC3339) + " .. " + r.End.Format(time.RFC3339)
}

// Instrument identifies one station/parameter series.
type Instrument struct {
	StationID int `json:"station_id"`
	ParamID   int `json:"param_id"`
}

// Observation is a row of the qc_observations table.
type Observation struct {
	StationID int               `json:"station_id"`
	ParamID   int               `json:"param_id"`
	ObsTime   time.Time         `json:"obstime"`
	Original  float64           `json:"original"`
	Corrected float64           `json:"corrected"`
	Status    ObservationStatus `json:"status"`
}

// Instrument returns the series the observation belongs to.
func (o Observation) Instrument() Instrument {
	return Instrument{StationID: o.StationID, ParamID: o.ParamID}
}

// ModelValue is a row of the qc_model table.
type ModelValue struct {
	StationID int       `json:"station_id"`
	ParamID   int       `json:"param_id"`
	ObsTime   time.Time `json:"obstime"`
	Value     float64   `json:"value"`
}

// NeighborCorrelation is a row of the qc_neighbors table: a precomputed
// affine fit from a neighbor station onto the station.
type NeighborCorrelation struct {
	StationID  int     `json:"station_id"`
	ParamID    int     `json:"param_id"`
	NeighborID int     `json:"neighbor_id"`
	Rank       int     `json:"rank"`
	Offset     float64 `json:"offset"`
	Slope      float64 `json:"slope"`
	Sigma      float64 `json:"sigma"`
}

// ObservationUpdate is a status transition, optionally carrying a new corrected value.
type ObservationUpdate struct {
	StationID int
	ParamID   int
	ObsTime   time.Time
	Corrected *float64
	Status    ObservationStatus
}

// FillRecord is one interpolated or failed hour as recorded by a run.
type FillRecord struct {
	RunID     int64     `json:"run_id"`
	StationID int       `json:"station_id"`
	ParamID   int       `json:"param_id"`
	ObsTime   time.Time `json:"obstime"`
	Value     *float64  `json:"value"`
	Quality   string    `json:"quality"`
	Source    string    `json:"source"`
}

// RunSummary counts the outcome of a run.
type RunSummary struct {
	Jobs    int `json:"jobs"`
	Skipped int `json:"skipped"`
	Good    int `json:"good"`
	Bad     int `json:"bad"`
	Failed  int `json:"failed"`
}

// RunRecord represents a row from the qc_runs table.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalJobs     int32
	SkippedJobs   int32
	Good          int32
	Bad           int32
	Failed        int32
	ConfigParams  *string
}
