package schema

// SkippedJob is a planned job that was not interpolated.
type SkippedJob struct {
	Instrument
	Range  TimeRange  `json:"range"`
	Reason SkipReason `json:"reason"`
}

// FillResult is the outcome of a fill run: every written hour plus the jobs that were skipped.
type FillResult struct {
	RunID   int64        `json:"run_id"`
	Window  TimeRange    `json:"window"`
	DryRun  bool         `json:"dry_run"`
	Fills   []FillRecord `json:"fills"`
	Skipped []SkippedJob `json:"skipped"`
	Summary RunSummary   `json:"summary"`
}
