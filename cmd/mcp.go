package cmd

import (
	"github.com/huangsam/dorametrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the dorametrics MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents compute delivery
metrics and availability reports via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
