package cmd

import (
	"github.com/huangsam/stationqc/core"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
	"github.com/spf13/cobra"
)

// fillCmd plans, interpolates and writes back the gaps of the window.
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Interpolate missing and rejected observations in the window.",
	Long: `Find pending rows in the series store, group them into missing ranges and fill
each range from neighbor stations, a spline and the background model.

Each filled hour gets a quality:
- GOOD: next to a trusted observation
- BAD: deeper inside the gap
- FAILED: no candidate was accepted

Relative humidity is filled as dew point after temperature, so fresh temperature
fills are used for the conversion.

Examples:
  # Fill the last week for every station
  stationqc fill

  # Preview a single station without writing
  stationqc fill --station 18700 --start "2 days ago" --dry-run

  # Export fills for a window as CSV
  stationqc fill --start 2025-06-01T00 --end 2025-06-02T00 --output csv --output-file fills.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFill(rootCtx, cfg, iostore.Manager); err != nil {
			contract.LogFatal("Cannot run fill", err)
		}
	},
}
