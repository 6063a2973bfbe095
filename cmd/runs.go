package cmd

import (
	"cmp"
	"fmt"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
	"github.com/huangsam/stationqc/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run store operations.
func runsSetup() error {
	backend, connStr, err := backendSetup("runs-backend", "runs-db-connect")
	if err != nil {
		return err
	}
	if err := iostore.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads the run store settings without opening the store,
// so that migrations can run on a fresh database.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("runs-backend", "runs-db-connect")
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunsDBFilePath()
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsCmd focused on run tracking management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage fill run tracking and exports",
	Long: `Manage the history of fill runs.

When enabled with --runs-backend, every applied fill run stores:
- Run metadata (timestamp, configuration, duration, outcome counts)
- Every value written, with its quality and source

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  stationqc runs status --runs-backend sqlite
  stationqc runs export --runs-backend sqlite --output-file history`,
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runs := iostore.Manager.GetRunStore()
		if runs == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("run tracking is disabled. Set --runs-backend"))
		}
		status, err := runs.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iostore.PrintRunStatus(status)
	},
}

// runsClearCmd clears the run store.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all fill run tracking data",
	Long: `Delete all stored runs and recorded fills.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  stationqc runs export --output-file backup
  stationqc runs clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		backend, connStr, err := backendSetup("runs-backend", "runs-db-connect")
		if err != nil {
			return err
		}
		cfg.RunsBackend = backend
		cfg.RunsDBConnect = connStr
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := cmp.Or(cfg.RunsDBConnect, contract.GetRunsDBFilePath())
		if err := iostore.ClearRuns(cfg.RunsBackend, dbFile, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsExportCmd exports run data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and fills to Parquet.

Writes two files next to --output-file:
  <output-file>.runs.parquet  - one row per run
  <output-file>.fills.parquet - one row per written hour

Examples:
  stationqc runs export --output-file history
  duckdb -c "SELECT quality, count(*) FROM read_parquet('history.fills.parquet') GROUP BY 1"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ExecuteRunExport(iostore.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  stationqc runs migrate --runs-backend sqlite

  # Rollback to initial state
  stationqc runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iostore.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
