package iostore

import (
	"errors"
	"fmt"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/parquet"
)

// ExecuteRunExport writes all runs and fills of store to
// <outputFile>.runs.parquet and <outputFile>.fills.parquet.
func ExecuteRunExport(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled. Set --runs-backend to enable it")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total fills: %d\n", status.TotalFills)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	fills, err := store.GetAllFills()
	if err != nil {
		return fmt.Errorf("failed to retrieve fills: %w", err)
	}

	runRows := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(runRows, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runRows), runsFile)

	fillRows := parquet.ConvertFillRecords(fills)
	fillsFile := outputFile + ".fills.parquet"
	if err := parquet.WriteFillsParquet(fillRows, fillsFile); err != nil {
		return fmt.Errorf("failed to write fills: %w", err)
	}
	fmt.Printf("Exported %d fills to: %s\n", len(fillRows), fillsFile)

	return nil
}
