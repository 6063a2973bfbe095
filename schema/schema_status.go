package schema

import "time"

// SeriesStatus represents the status of the series store.
type SeriesStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	Stations        int              `json:"stations"`
	OldestObsTime   time.Time        `json:"oldest_obstime"`
	NewestObsTime   time.Time        `json:"newest_obstime"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	TableSizes      map[string]int64 `json:"table_sizes"`
	PendingFillRows int64            `json:"pending_fill_rows"`
}

// RunStatus represents the status of the run tracking store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalFills    int64            `json:"total_fills"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
