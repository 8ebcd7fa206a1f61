package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
	"github.com/Nathan-Furnal/blog/internal/importer"
)

// newImportCommand creates the import command.
func newImportCommand() *cobra.Command {
	var (
		section string
		format  string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Import a web page as a draft post",
		Long: `Fetch a page, extract its main content and convert it to Markdown with
front matter carrying the title, canonical URL and description. The draft
lands in the configured section, posts by default.`,
		Example: `  blog import https://example.com/interesting-article

  # Into a different section
  blog import https://example.com/recipe --section cooking`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}

			svc, err := importer.NewService(importer.Config{}, draftScaffold(sess), sess.logs)
			if err != nil {
				return err
			}
			result, err := svc.Import(cmd.Context(), blog.ImportInput{
				URL:     args[0],
				Section: section,
				Format:  blog.Format(format),
				Force:   force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q\n", result.Page.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", result.File.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "destination section (default posts)")
	cmd.Flags().StringVar(&format, "format", "", "front matter format, toml or yaml (default toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing draft with the same slug")

	return cmd
}
