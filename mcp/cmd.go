package mcp

import (
	"github.com/spf13/cobra"
	"github.com/travelwarn/travelwarn/api"
	"github.com/travelwarn/travelwarn/config"
)

// Command returns the MCP server command. load supplies the merged
// configuration from the root command's flags.
func Command(load func(cmd *cobra.Command) (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			tables, err := api.LoadTables(cfg.LookupPath)
			if err != nil {
				return err
			}
			return NewServer(cfg, tables).Run()
		},
	}
}
