package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
)

// newServeCommand creates the serve command.
func newServeCommand() *cobra.Command {
	var noLiveReload bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the site and serve it, rebuilding on change",
		Long: `Build the site, serve the output directory over HTTP and rebuild when
content, theme or static files change. With live reload enabled (the
default) open pages refresh themselves after a rebuild.`,
		Example: `  # Serve on the configured address, 127.0.0.1:8080 by default
  blog serve

  # Pick a port and skip the reload script
  blog serve --port 3000 --no-live-reload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, cleanup, err := openSite(cmd, func(cfg *blog.Config) {
				if noLiveReload {
					cfg.Serve.LiveReload = false
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return site.Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&noLiveReload, "no-live-reload", false, "serve without injecting the reload script")

	return cmd
}
