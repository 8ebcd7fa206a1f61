package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCheckCommand creates the check command.
func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that internal links resolve",
		Long: `Load the content tree and verify that every internal link points at a page,
taxonomy index, asset or generated file the published site will contain.
Exits non-zero when violations are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, cleanup, err := openSite(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			violations, err := site.Check(cmd.Context())
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All internal links resolve.")
				return nil
			}
			for _, violation := range violations {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: broken link %q (%s)\n",
					violation.File, violation.Destination, violation.Reason)
			}
			noun := "links"
			if len(violations) == 1 {
				noun = "link"
			}
			return fmt.Errorf("%d broken internal %s", len(violations), noun)
		},
	}
}
