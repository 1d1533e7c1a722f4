package cli

import (
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create or verify the aggregate table and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("aggregate table verified")
			return nil
		},
	}
}
