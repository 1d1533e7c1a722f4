package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"panopticon-aggregator/internal/aggregation/core/domain"
)

// NewRunCommand creates the run command: one catch-up pass, then exit.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Aggregate every missing day up to yesterday and exit",
		Long: `Ensure the aggregate table exists, then aggregate every day between the
latest aggregated day (or aggregation.initial_day) and today's UTC midnight.

Exits non-zero if any step fails; already committed days are kept and the
next run resumes from the first missing day.

Example:
  aggregator run --config /etc/panopticon/aggregator.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd)
		},
	}
}

func runOnce(opts *RootOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.agg.driver.CatchUp(ctx)
	if err != nil {
		return err
	}

	rt.logger.Info("aggregation complete",
		"run_id", res.RunID,
		"inserted", res.Inserted,
		"up_to", domain.FormatDay(res.NextDay),
	)
	return nil
}
