// Package bootstrap assembles a Site together with its command handlers for
// hosts that embed the engine: construct once, then hand the collected
// handlers to whatever CLI or dispatcher integration the host runs.
package bootstrap

import (
	"fmt"

	"github.com/Nathan-Furnal/blog"
	"github.com/Nathan-Furnal/blog/commands"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// Options captures the tunable configuration for the bootstrap.
type Options struct {
	// Config overrides the defaults; zero value fields keep them.
	Config *blog.Config
	// WorkDir resolves relative configuration paths against a project root.
	WorkDir string
	Logger  interfaces.LoggerProvider
	Storage interfaces.StorageProvider
	// EnableCommands collects command handlers for direct invocation when true.
	EnableCommands bool
	// RefreshArchiveCron overrides the archive refresh schedule.
	RefreshArchiveCron string
}

// Resources groups the assembled site and the optional command collector.
type Resources struct {
	Site      *blog.Site
	Collector *CommandCollector
}

// CommandCollector records registered handlers so hosts can invoke them
// directly when no dispatcher integration is wired.
type CommandCollector struct {
	handlers []any
}

// RegisterCommand satisfies commands.CommandRegistry.
func (c *CommandCollector) RegisterCommand(handler any) error {
	c.handlers = append(c.handlers, handler)
	return nil
}

// Handlers returns the collected handlers.
func (c *CommandCollector) Handlers() []any {
	if len(c.handlers) == 0 {
		return nil
	}
	out := make([]any, len(c.handlers))
	copy(out, c.handlers)
	return out
}

// BuildSite initialises a blog.Site and, when requested, registers its
// command handlers with a collector.
func BuildSite(opts Options) (*Resources, error) {
	cfg := blog.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	siteOpts := []blog.Option{}
	if opts.Logger != nil {
		siteOpts = append(siteOpts, blog.WithLoggerProvider(opts.Logger))
	}
	if opts.WorkDir != "" {
		siteOpts = append(siteOpts, blog.WithWorkDir(opts.WorkDir))
	}
	if opts.Storage != nil {
		siteOpts = append(siteOpts, blog.WithStorageProvider(opts.Storage))
	}

	site, err := blog.New(cfg, siteOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise site: %w", err)
	}

	var collector *CommandCollector
	if opts.EnableCommands {
		collector = &CommandCollector{
			handlers: make([]any, 0),
		}
		if _, err := commands.RegisterSiteCommands(cfg, commands.Services{
			Generator: site.Generator(),
			Loader:    site.Content(),
			LinkCheck: site.LinkCheck(),
			Importer:  site.Importer(),
			Archive:   site.Archive(),
		}, commands.RegistrationOptions{
			Registry:           collector,
			LoggerProvider:     opts.Logger,
			RefreshArchiveCron: opts.RefreshArchiveCron,
		}); err != nil {
			site.Close()
			return nil, fmt.Errorf("register site commands: %w", err)
		}
	}

	return &Resources{
		Site:      site,
		Collector: collector,
	}, nil
}
