package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/travelwarn/travelwarn/api"
	"github.com/travelwarn/travelwarn/api/lookup"
)

func newResolveCmd(opts *options) *cobra.Command {
	table := tableFlag{Value: "slug"}

	cmd := &cobra.Command{
		Use:   "resolve <key>...",
		Short: "Show how keys map through a lookup table",
		Long: `Resolve looks each key up in one of the lookup tables:

  slug     gov.il URL slug to ISO country code (e.g. egypt)
  level    warning name to warning level (e.g. "איסור נסיעה")
  country  raw country code to Hebrew and English names (e.g. 818)

Unmapped keys are marked; slugs and levels pass through unchanged and
country names fall back to NA.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			tables, err := api.LoadTables(cfg.LookupPath)
			if err != nil {
				return err
			}
			printResolutions(cmd.OutOrStdout(), tables, table.Value, args)
			return nil
		},
	}
	cmd.Flags().VarP(&table, "table", "t", "lookup table: slug, level or country")
	return cmd
}

func printResolutions(w io.Writer, tables *lookup.Tables, table string, keys []string) {
	for _, key := range keys {
		var value string
		var mapped bool
		switch table {
		case "level":
			_, mapped = tables.WarningLevels[key]
			value = tables.WarningLevel(key)
		case "country":
			var names lookup.Names
			names, mapped = tables.CountryNames[key]
			if !mapped {
				names = tables.CountryName(key)
			}
			value = names.En + " / " + names.He
		default:
			_, mapped = tables.CountryCodes[key]
			value = tables.CountryCode(key)
		}

		note := ""
		if !mapped {
			note = "  (unmapped)"
		}
		fmt.Fprintf(w, "%-20s %s%s\n", key, value, note)
	}
}
