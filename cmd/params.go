package cmd

import (
	"github.com/huangsam/stationqc/core"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/spf13/cobra"
)

// paramsCmd prints the effective parameter table.
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the parameters used for interpolation.",
	Long: `Print the parameter table after applying the config file and --parameter-override.

Examples:
  stationqc params
  stationqc params --parameter-override "par=262,maxOffset=10" --output json`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return configSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteParams(cfg); err != nil {
			contract.LogFatal("Cannot print parameters", err)
		}
	},
}
