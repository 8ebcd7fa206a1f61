package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCleanCommand creates the clean command.
func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, cleanup, err := openSite(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := site.Clean(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", site.Config().Generator.OutputDir)
			return nil
		},
	}
}
