package cmd

import (
	"github.com/huangsam/stationqc/internal/iostore"
	"github.com/huangsam/stationqc/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the StationQC MCP server",
	Long:  `Launch an MCP server on stdio that exposes series interpolation, gap filling and run status as tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iostore.Manager)
	},
}
