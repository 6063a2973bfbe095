package iostore

import (
	"fmt"
	"maps"
	"slices"

	"github.com/huangsam/stationqc/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintSeriesStatus prints series store status information.
func PrintSeriesStatus(status schema.SeriesStatus) {
	fmt.Printf("Series Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Stations: %d\n", status.Stations)
	if status.Stations > 0 {
		fmt.Printf("Oldest Observation: %s\n", status.OldestObsTime.Format(statusTimeFormat))
		fmt.Printf("Newest Observation: %s\n", status.NewestObsTime.Format(statusTimeFormat))
	}
	fmt.Printf("Pending Rows: %d\n", status.PendingFillRows)
	fmt.Println("Status Counts:")
	for _, st := range slices.Sorted(maps.Keys(status.StatusCounts)) {
		fmt.Printf("  %s: %d rows\n", st, status.StatusCounts[st])
	}
	printTableSizes(status.TableSizes)
}

// PrintRunStatus prints run store status information.
func PrintRunStatus(status schema.RunStatus) {
	fmt.Printf("Runs Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format(statusTimeFormat))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeFormat))
		fmt.Printf("Total Fills: %d\n", status.TotalFills)
	}
	printTableSizes(status.TableSizes)
}

func printTableSizes(sizes map[string]int64) {
	fmt.Println("Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(sizes)) {
		fmt.Printf("  %s: %d rows\n", table, sizes[table])
	}
}
