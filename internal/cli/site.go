package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
	"github.com/Nathan-Furnal/blog/commands/bootstrap"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
)

// openSite constructs the full site for the executing command, applying any
// configuration overrides first. The returned cleanup closes the archive
// database and must run before the process exits.
func openSite(cmd *cobra.Command, overrides ...func(*blog.Config)) (*blog.Site, func(), error) {
	sess, err := currentSession(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg := *sess.cfg
	for _, override := range overrides {
		override(&cfg)
	}

	resources, err := bootstrap.BuildSite(bootstrap.Options{
		Config:  &cfg,
		WorkDir: sess.root,
		Logger:  sess.logs,
	})
	if err != nil {
		return nil, nil, err
	}

	site := resources.Site
	cleanup := func() {
		if err := site.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: close site: %v\n", err)
		}
	}
	return site, cleanup, nil
}

// draftScaffold builds the scaffolder the content commands write through.
// It needs no theme and no existing content tree, so new and import also
// work in a freshly initialised project.
func draftScaffold(sess *session) *blog.ScaffoldService {
	return scaffold.NewService(scaffold.Config{
		ContentDir: sess.cfg.Content.Dir,
		Author:     sess.cfg.Site.Author,
	}, sess.logs)
}
