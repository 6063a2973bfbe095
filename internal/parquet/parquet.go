// Package parquet provides data structures and functions for exporting fill
// runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/stationqc/schema"
	"github.com/parquet-go/parquet-go"
)

// RunRow represents a single fill run with metadata.
// This struct maps to the qc_runs database table.
type RunRow struct {
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalJobs   int32 `parquet:"total_jobs,snappy"`
	SkippedJobs int32 `parquet:"skipped_jobs,snappy"`
	Good        int32 `parquet:"good,snappy"`
	Bad         int32 `parquet:"bad,snappy"`
	Failed      int32 `parquet:"failed,snappy"`

	// ConfigParams contains the JSON-encoded run settings (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FillRow represents one hour written by a run.
// This struct maps to the qc_run_fills database table.
type FillRow struct {
	RunID     int64     `parquet:"run_id,snappy"`
	StationID int32     `parquet:"station_id,snappy"`
	ParamID   int32     `parquet:"param_id,snappy"`
	ObsTime   time.Time `parquet:"obstime,snappy"`

	// Value is the interpolated value, null when interpolation failed
	Value *float64 `parquet:"value,optional,snappy"`

	Quality string `parquet:"quality,dict,snappy"`
	Source  string `parquet:"source,dict,snappy"`
}

// WriteRunsParquet writes a slice of RunRow structs to a Parquet file.
func WriteRunsParquet(data []RunRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFillsParquet writes a slice of FillRow structs to a Parquet file.
func WriteFillsParquet(data []FillRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to RunRow for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		result[i] = RunRow{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalJobs:     record.TotalJobs,
			SkippedJobs:   record.SkippedJobs,
			Good:          record.Good,
			Bad:           record.Bad,
			Failed:        record.Failed,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertFillRecords converts schema.FillRecord to FillRow for Parquet export.
func ConvertFillRecords(records []schema.FillRecord) []FillRow {
	result := make([]FillRow, len(records))
	for i, record := range records {
		result[i] = FillRow{
			RunID:     record.RunID,
			StationID: int32(record.StationID),
			ParamID:   int32(record.ParamID),
			ObsTime:   record.ObsTime,
			Value:     record.Value,
			Quality:   record.Quality,
			Source:    record.Source,
		}
	}
	return result
}
