package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/parquet"
	"github.com/huangsam/stationqc/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintFillResults outputs the fill results, dispatching based on the output format configured.
func PrintFillResults(result *schema.FillResult, cfg *contract.Config, duration time.Duration) error {
	_, fmtValue := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFillCSV(w, result.Fills, fmtValue)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteFillsParquet(parquet.ConvertFillRecords(result.Fills), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFillTable(w, result, cfg, fmtValue, duration)
		}, "Wrote table")
	}
	return nil
}

// writeFillCSV writes one row per fill.
func writeFillCSV(w io.Writer, fills []schema.FillRecord, fmtValue func(*float64) string) error {
	header := []string{"run_id", "station_id", "param_id", "obstime", "value", "quality", "source"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, f := range fills {
			rec := []string{
				strconv.FormatInt(f.RunID, 10),
				strconv.Itoa(f.StationID),
				strconv.Itoa(f.ParamID),
				f.ObsTime.Format(contract.DateTimeFormat),
				fmtValue(f.Value),
				f.Quality,
				f.Source,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeFillTable generates and writes the human-readable table with a summary footer.
func writeFillTable(w io.Writer, result *schema.FillResult, cfg *contract.Config, fmtValue func(*float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Station", "Param", "Time", "Value", "Quality", "Source"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, f := range result.Fills {
		data = append(data, []string{
			strconv.Itoa(f.StationID),
			paramLabel(cfg, f.ParamID),
			f.ObsTime.Format(contract.DateTimeFormat),
			fmtValue(f.Value),
			qualityLabel(f.Quality, cfg.UseColors),
			f.Source,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(result.Skipped) > 0 {
		if err := writeSkippedTable(w, result.Skipped, cfg); err != nil {
			return err
		}
	}

	return writeFillSummary(w, result, cfg, duration)
}

// writeSkippedTable lists the jobs that were planned but not interpolated.
func writeSkippedTable(w io.Writer, skipped []schema.SkippedJob, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Station", "Param", "Range", "Reason"})

	rangeWidth := getMaxTableRangeWidth(cfg)
	var data [][]string
	for _, s := range skipped {
		data = append(data, []string{
			strconv.Itoa(s.StationID),
			paramLabel(cfg, s.ParamID),
			contract.TruncateText(s.Range.String(), rangeWidth),
			string(s.Reason),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeFillSummary prints the footer line of a fill run.
func writeFillSummary(w io.Writer, result *schema.FillResult, cfg *contract.Config, duration time.Duration) error {
	s := result.Summary
	mode := "applied"
	if result.DryRun {
		mode = "dry run"
	}
	if _, err := fmt.Fprintf(w, "Jobs: %d (skipped: %d), good: %d, bad: %d, failed: %d [%s]\n",
		s.Jobs, s.Skipped, s.Good, s.Bad, s.Failed, mode); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Fill completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend)
	return err
}

// paramLabel returns "NAME (id)" for configured parameters and the bare id otherwise.
func paramLabel(cfg *contract.Config, id int) string {
	if pi, ok := cfg.Parameter(id); ok && pi.Name != "" {
		return fmt.Sprintf("%s (%d)", pi.Name, id)
	}
	return strconv.Itoa(id)
}
