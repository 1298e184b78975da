package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"github.com/travelwarn/travelwarn/config"
)

var isoCode = regexp.MustCompile(`^[A-Z]{3}$`)

type missingEntry struct {
	Code    string
	Reasons []string
}

func newMissingCmd(load func(*cobra.Command) (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "missing [snapshot]",
		Short: "List snapshot entries the lookup tables did not cover",
		Long: `Missing reads a snapshot (the configured output by default) and lists every
entry whose key is not an ISO alpha-3 code, meaning its URL slug had no
mapping, or whose country names fell back to NA.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readSnapshotArg(cmd, load, args)
			if err != nil {
				return err
			}
			printMissing(cmd.OutOrStdout(), findMissing(doc))
			return nil
		},
	}
}

// readSnapshotArg reads the snapshot named by args, or the configured output.
func readSnapshotArg(cmd *cobra.Command, load func(*cobra.Command) (config.Config, error), args []string) (snapshot.Document, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := load(cmd)
		if err != nil {
			return snapshot.Document{}, err
		}
		path = cfg.Output
	}
	return snapshot.Read(path)
}

func findMissing(doc snapshot.Document) []missingEntry {
	return lo.FilterMap(doc.Codes(), func(code string, _ int) (missingEntry, bool) {
		e := doc.Countries[code]
		var reasons []string
		if !isoCode.MatchString(code) {
			reasons = append(reasons, "unmapped slug")
		}
		if e.EnglishName == lookup.NotAvailable || e.HebrewName == lookup.NotAvailable {
			reasons = append(reasons, "no country names")
		}
		return missingEntry{Code: code, Reasons: reasons}, len(reasons) > 0
	})
}

func printMissing(w io.Writer, entries []missingEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Every entry is mapped")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %s\n", e.Code, strings.Join(e.Reasons, ", "))
	}
	fmt.Fprintf(w, "%d entries need a lookup table update\n", len(entries))
}
