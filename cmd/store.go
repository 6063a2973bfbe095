package cmd

import (
	"cmp"
	"fmt"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
	"github.com/spf13/cobra"
)

// storeCmd focused on series store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by fill. This avoids window and parameter
// validation for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the series store",
	Long: `Manage the series store holding observations, model values and neighbor correlations.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show row counts and the observation time span
  clear  - Remove all series data`,
}

// storeStatusCmd shows series store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display series store statistics and connection details",
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iostore.Manager.GetSeriesStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iostore.PrintSeriesStatus(status)
	},
}

// storeClearCmd clears the series store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all series data",
	Long: `Delete every observation, model value and neighbor correlation.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the series tables

WARNING: This action cannot be undone.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		backend, connStr, err := backendSetup("store-backend", "store-db-connect")
		if err != nil {
			return err
		}
		cfg.StoreBackend = backend
		cfg.StoreDBConnect = connStr
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := cmp.Or(cfg.StoreDBConnect, contract.GetStoreDBFilePath())
		if err := iostore.ClearSeries(cfg.StoreBackend, dbFile, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear series store", err)
		}
		fmt.Println("Series store cleared successfully.")
	},
}
