package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
	"github.com/travelwarn/travelwarn/api"
	"github.com/travelwarn/travelwarn/config"
	"github.com/travelwarn/travelwarn/log"
	"github.com/travelwarn/travelwarn/mcp"
	"github.com/travelwarn/travelwarn/metrics"
)

// options holds the values of the global flags.
type options struct {
	configPath  string
	envFile     string
	output      string
	lookup      string
	endpoint    string
	userAgent   string
	metricsFile string
	batchSize   int
	pause       time.Duration
	timeout     time.Duration
	logLevel    logLevelFlag
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "travelwarn",
		Short:         "Scrape gov.il travel warnings into clean.json",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `travelwarn fetches every travel warning published by the Israeli government,
normalizes warning levels, country codes and country names, and writes a single
JSON snapshot keyed by country code.

Running travelwarn without a subcommand is the same as travelwarn scrape.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.logLevel.IsSet {
				log.SetLevel(opts.logLevel.Level)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with TRAVELWARN_* variables")
	pf.StringVarP(&opts.output, "output", "o", "", "snapshot path (default clean.json)")
	pf.StringVar(&opts.lookup, "lookup", "", "lookup tables file replacing the bundled tables")
	pf.StringVar(&opts.endpoint, "endpoint", "", "DynamicCollector endpoint")
	pf.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header sent to the collector")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this node-exporter textfile")
	pf.IntVar(&opts.batchSize, "batch-size", 0, "records requested per page")
	pf.DurationVar(&opts.pause, "pause", 0, "minimum delay between page requests")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout")
	pf.Var(&opts.logLevel, "log-level", "log level (debug, info, warn, error)")

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch, normalize and write the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, opts)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "travelwarn version %s\n", api.Version)
			if api.VersionCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", api.VersionCommit)
			}
		},
	}

	load := func(cmd *cobra.Command) (config.Config, error) {
		return loadConfig(cmd, opts)
	}

	rootCmd.AddCommand(
		scrapeCmd,
		versionCmd,
		newResolveCmd(opts),
		newShowCmd(load),
		newMissingCmd(load),
		mcp.Command(load),
	)
	return rootCmd
}

// Run executes the main CLI functionality
func Run(ctx context.Context, args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// loadConfig merges defaults, the env file, the environment, the config file
// and finally any flag set on the command line, then validates the result.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("lookup") {
		cfg.LookupPath = opts.lookup
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = opts.endpoint
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if flags.Changed("pause") {
		cfg.Pause = opts.pause
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runScrape(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	tables, err := api.LoadTables(cfg.LookupPath)
	if err != nil {
		return failure.Wrap(err, failure.Message("Failed to load lookup tables"))
	}

	sum, runErr := api.Run(cmd.Context(), cfg, tables)
	if err := metrics.Record(cfg.MetricsFile, sum, runErr); err != nil {
		log.Warn("Failed to write metrics", "path", cfg.MetricsFile, "error", err)
	}
	return runErr
}
