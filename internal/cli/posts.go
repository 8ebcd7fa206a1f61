package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
	"github.com/Nathan-Furnal/blog/internal/archive"
)

// newPostsCommand groups the archive queries.
func newPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Query the archive index",
		Long: `Query the SQLite index of published posts. The index is refreshed after
every successful full build when archiving is enabled.`,
	}
	cmd.AddCommand(newPostsListCommand(), newPostsSearchCommand())
	return cmd
}

// newPostsListCommand creates the posts list command.
func newPostsListCommand() *cobra.Command {
	var (
		section string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed posts, newest first",
		Example: `  blog posts list
  blog posts list --section notes --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}
			index, err := openArchive(sess)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			records, err := index.List(cmd.Context(), blog.ListOptions{
				Section: section,
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "only posts from this section")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of posts")
	cmd.Flags().IntVar(&offset, "offset", 0, "posts to skip from the top")

	return cmd
}

// newPostsSearchCommand creates the posts search command.
func newPostsSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search indexed posts by title and summary",
		Example: `  blog posts search generics`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := currentSession(cmd)
			if err != nil {
				return err
			}
			index, err := openArchive(sess)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			records, err := index.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of matches (default 50)")

	return cmd
}

// openArchive opens the archive index without constructing a full site, so
// queries work regardless of theme or content state.
func openArchive(sess *session) (blog.ArchiveService, error) {
	if !sess.cfg.Archive.Enabled {
		return nil, errors.New("archive is disabled; set archive.enabled = true in the config")
	}
	db, err := archive.Open(sess.cfg.Archive.Path)
	if err != nil {
		return nil, err
	}
	svc, err := archive.NewService(archive.Config{
		Path:     sess.cfg.Archive.Path,
		CacheTTL: sess.cfg.Archive.CacheTTL,
	}, archive.Dependencies{DB: db, Logger: sess.logs})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return svc, nil
}

// printRecords renders archive records as a fixed-width table.
func printRecords(w io.Writer, records []*blog.ArchiveRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return
	}
	for _, record := range records {
		date := strings.Repeat(" ", 10)
		if !record.Date.IsZero() {
			date = record.Date.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s  %-40s %s\n", date, record.Title, record.Route)
	}
}
