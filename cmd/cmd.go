// Package cmd defines the command-line interface for stationqc.
package cmd

import (
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("start", "", "Window start in RFC3339, 2006-01-02T15 or time ago (default: 7 days before end)")
	rootCmd.PersistentFlags().String("end", "", "Window end in RFC3339, 2006-01-02T15 or time ago (default: now)")
	rootCmd.PersistentFlags().String("station", "", "Comma-separated station ids (default: all stations)")
	rootCmd.PersistentFlags().String("param", "", "Comma-separated parameter ids (default: all configured parameters)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Series store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Series store connection string (SQLite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Run tracking connection string (must differ from store-db-connect for sqlite)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("parameter-override", "", "Parameter definitions (format: 'par=262,minVal=0,maxVal=100,maxOffset=15;par=...')")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of fillCmd to Viper
	fillCmd.Flags().Bool("akima-first", false, "Try the spline before the neighbor blend")
	fillCmd.Flags().Int("extra-data", contract.DefaultExtraData, "Hours of context loaded on both sides of a missing range")
	fillCmd.Flags().Int("neighbor-cap", contract.DefaultNeighborCap, "Most neighbors blended per hour")
	fillCmd.Flags().Int("gap-link", contract.DefaultGapLink, "Largest distance in hours that joins missing rows into one range")
	fillCmd.Flags().Int("edge-hours", contract.DefaultEdgeHours, "Ranges this close to the window edges are skipped")
	fillCmd.Flags().Float64("ra-threshold", contract.DefaultRAThreshold, "Largest drop tolerated in accumulated precipitation")
	fillCmd.Flags().Bool("dry-run", false, "Compute and report fills without writing them")
	if err := viper.BindPFlags(fillCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fill flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
