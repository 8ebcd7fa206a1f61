package commands

import (
	"errors"
	"strings"

	buildcmd "github.com/Nathan-Furnal/blog/internal/commands/build"
	contentcmd "github.com/Nathan-Furnal/blog/internal/commands/content"
	"github.com/Nathan-Furnal/blog/internal/generator"
	"github.com/Nathan-Furnal/blog/internal/runtimeconfig"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// Services carries the engine services command handlers wrap. Every field is
// optional; handler sets whose services are missing are skipped.
type Services struct {
	Generator generator.Service
	Loader    contentcmd.ModelLoader
	LinkCheck contentcmd.LinkChecker
	Importer  contentcmd.PageImporter
	Archive   contentcmd.Archiver
}

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// RefreshArchiveCron overrides the default cron expression applied to the archive refresh handler.
	RefreshArchiveCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterSiteCommands builds the command handlers exposed by the engine and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterSiteCommands(cfg runtimeconfig.Config, services Services, opts RegistrationOptions) (*RegistrationResult, error) {
	provider := opts.LoggerProvider

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return CommandLogger(provider, module)
	}

	// Build commands.
	if services.Generator != nil {
		gates := buildcmd.FeatureGates{
			GeneratorEnabled: func() bool { return services.Generator != nil },
			SitemapEnabled:   func() bool { return cfg.Generator.Sitemap },
		}
		buildLogger := loggerFor("build")
		register(buildcmd.NewBuildSiteHandler(services.Generator, buildLogger, gates))
		register(buildcmd.NewDiffSiteHandler(services.Generator, buildLogger, gates))
		register(buildcmd.NewCleanSiteHandler(services.Generator, buildLogger, gates))
		if cfg.Generator.Sitemap {
			register(buildcmd.NewBuildSitemapHandler(services.Generator, buildLogger, gates))
		}
	}

	// Content commands.
	contentLogger := loggerFor("content")
	if services.Loader != nil && services.LinkCheck != nil {
		register(contentcmd.NewCheckLinksHandler(services.Loader, services.LinkCheck, contentLogger))
	}
	if services.Importer != nil {
		register(contentcmd.NewImportPageHandler(services.Importer, contentLogger))
	}

	// Archive commands.
	if services.Loader != nil && services.Archive != nil && cfg.Archive.Enabled {
		gates := contentcmd.FeatureGates{
			ArchiveEnabled: func() bool { return cfg.Archive.Enabled },
		}
		refreshOpts := []contentcmd.RefreshHandlerOption{}
		if expr := strings.TrimSpace(opts.RefreshArchiveCron); expr != "" {
			refreshOpts = append(refreshOpts, contentcmd.RefreshWithCronExpression(expr))
		}
		register(contentcmd.NewRefreshArchiveHandler(services.Loader, services.Archive, contentLogger, gates, refreshOpts...))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured and required features enabled")
	}

	return result, errs
}
