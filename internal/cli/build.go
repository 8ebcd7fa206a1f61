package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
)

// newBuildCommand creates the build command.
func newBuildCommand() *cobra.Command {
	var (
		force      bool
		dryRun     bool
		assetsOnly bool
		sections   []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into the output directory",
		Long: `Render every page, feed and asset into the output directory.

Builds are incremental: pages whose source, template and configuration are
unchanged since the recorded manifest are skipped. Use --force to rebuild
from scratch.`,
		Example: `  # Incremental build
  blog build

  # Full rebuild with drafts included
  blog build --force --drafts

  # Render without writing anything
  blog build --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, cleanup, err := openSite(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := site.Build(cmd.Context(), blog.BuildOptions{
				Sections:   sections,
				Force:      force,
				DryRun:     dryRun,
				AssetsOnly: assetsOnly,
			})
			if err != nil {
				return err
			}
			printBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rebuild everything, ignoring the manifest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing artifacts")
	cmd.Flags().BoolVar(&assetsOnly, "assets-only", false, "copy assets and skip page rendering")
	cmd.Flags().StringSliceVar(&sections, "section", nil, "limit rendering to the named sections")

	return cmd
}

func printBuildResult(w io.Writer, result *blog.BuildResult) {
	if result.DryRun {
		fmt.Fprintln(w, "Dry run, nothing written.")
	}
	fmt.Fprintf(w, "Pages:   %d built, %d skipped\n", result.PagesBuilt, result.PagesSkipped)
	fmt.Fprintf(w, "Assets:  %d copied, %d skipped\n", result.AssetsBuilt, result.AssetsSkipped)
	if result.AliasesBuilt > 0 {
		fmt.Fprintf(w, "Aliases: %d\n", result.AliasesBuilt)
	}
	if result.FeedsBuilt > 0 {
		fmt.Fprintf(w, "Feeds:   %d\n", result.FeedsBuilt)
	}
	fmt.Fprintf(w, "Done in %s.\n", result.Duration.Round(time.Millisecond))
}
