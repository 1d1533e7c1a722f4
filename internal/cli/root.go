package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"panopticon-aggregator/internal/config"
	"panopticon-aggregator/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command of the aggregator CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aggregator",
		Short: "Daily aggregation of homeserver telemetry",
		Long: `Aggregates the check-ins homeservers report to the telemetry endpoint
into one row per UTC day in the aggregate_stats table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file (env AGGREGATOR_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// load reads the configuration and installs the process logger.
func (o *RootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path := o.ConfigPath
	if path == "" {
		path = os.Getenv("AGGREGATOR_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}
