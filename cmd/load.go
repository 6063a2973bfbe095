package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/stationqc/core"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
	"github.com/spf13/cobra"
)

// storeSetup opens the series store only.
func storeSetup() error {
	backend, connStr, err := backendSetup("store-backend", "store-db-connect")
	if err != nil {
		return err
	}
	if err := iostore.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize series store: %w", err)
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// loadCmd reads CSV files into the series store.
var loadCmd = &cobra.Command{
	Use:       "load {observations|model|neighbors} FILE.csv",
	Short:     "Load observations, model values or neighbor correlations from CSV.",
	ValidArgs: core.LoadKinds(),
	Long: `Upsert rows from a CSV file into the series store. The first line must be the header.

Headers:
  observations: station_id,param_id,obstime,original,corrected,status
  model:        station_id,param_id,obstime,value
  neighbors:    station_id,param_id,neighbor_id,rank,offset,slope,sigma

Times are whole hours in RFC3339 or "2006-01-02 15:04:05" (UTC).
Statuses are ` + "ok, missing, rejected, filled_good, filled_bad, fill_failed" + `.

Examples:
  stationqc load observations obs.csv
  stationqc load neighbors neighbors.csv --store-backend postgresql`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(2)(cmd, args); err != nil {
			return err
		}
		return cobra.OnlyValidArgs(cmd, args[:1])
	},
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteLoad(rootCtx, iostore.Manager, strings.ToLower(args[0]), args[1]); err != nil {
			contract.LogFatal("Cannot load data", err)
		}
	},
}
