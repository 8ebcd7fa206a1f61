package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
)

// newNewCommand creates the new command.
func newNewCommand() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "new <section/title>",
		Short: "Scaffold a draft content file",
		Long: `Create a Markdown file with generated front matter under the content
directory. The argument is a section-qualified title: "posts/Going Faster"
becomes content/posts/going-faster.md. A bare title creates the file at the
content root.

New files start as drafts. Publish by flipping the draft flag after editing.`,
		Example: `  # A new post
  blog new "posts/Going Faster"

  # YAML front matter instead of TOML
  blog new "notes/Today I Learned" --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}

			result, err := draftScaffold(sess).Create(blog.CreateInput{
				Target: args[0],
				Format: blog.Format(format),
				Force:  force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "front matter format, toml or yaml (default toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"toml", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func validateFormat(format string) error {
	switch blog.Format(format) {
	case "", blog.FormatTOML, blog.FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown front matter format %q, want toml or yaml", format)
	}
}
