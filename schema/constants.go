package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the series and run stores.
	DatabaseBackend string

	// ObservationStatus is the QC state of a stored observation row.
	ObservationStatus string

	// SkipReason explains why a planned job was not interpolated.
	SkipReason string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Observation statuses.
const (
	StatusOK         ObservationStatus = "ok"          // trusted observation
	StatusMissing    ObservationStatus = "missing"     // no value was received
	StatusRejected   ObservationStatus = "rejected"    // value failed an earlier check
	StatusFilledGood ObservationStatus = "filled_good" // interpolated next to an anchor
	StatusFilledBad  ObservationStatus = "filled_bad"  // interpolated further inside a gap
	StatusFillFailed ObservationStatus = "fill_failed" // interpolation was attempted without result
)

// Job skip reasons.
const (
	SkipTimeLimits SkipReason = "time limits"
	SkipNoRow      SkipReason = "no row"
	SkipDownStep   SkipReason = "down step"
	SkipNoTA       SkipReason = "no temperature"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidObservationStatuses lists all valid observation statuses.
var ValidObservationStatuses = map[ObservationStatus]struct{}{
	StatusOK:         {},
	StatusMissing:    {},
	StatusRejected:   {},
	StatusFilledGood: {},
	StatusFilledBad:  {},
	StatusFillFailed: {},
}

// PendingStatuses are the statuses of rows that have not been attempted yet.
var PendingStatuses = []ObservationStatus{StatusMissing, StatusRejected}

// Trusted reports whether the row can anchor an interpolation.
func (s ObservationStatus) Trusted() bool {
	return s == StatusOK
}

// NeedsInterpolation reports whether the engine may overwrite the row.
func (s ObservationStatus) NeedsInterpolation() bool {
	switch s {
	case StatusMissing, StatusRejected, StatusFilledBad, StatusFillFailed:
		return true
	default:
		return false
	}
}

// Pending reports whether the row starts a new interpolation attempt.
func (s ObservationStatus) Pending() bool {
	return s == StatusMissing || s == StatusRejected
}

// HasValue reports whether the corrected column holds a value that other series may read.
func (s ObservationStatus) HasValue() bool {
	return s == StatusOK || s == StatusFilledGood || s == StatusFilledBad
}
