package buildcmd

import (
	"context"
	"strings"

	"github.com/Nathan-Furnal/blog/internal/commands"
	"github.com/Nathan-Furnal/blog/internal/generator"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	"github.com/google/uuid"
)

// BuildSiteHandler orchestrates generator builds using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}

		if msg.AssetsOnly {
			if err := service.BuildAssets(ctx); err != nil {
				return err
			}
			invokeCallback(msg.ResultCallback, ResultEnvelope{
				Result: nil,
				Metadata: map[string]any{
					"operation": "build_assets",
				},
			})
			return nil
		}

		if len(msg.PageIDs) == 1 && len(msg.Sections) == 0 {
			if err := service.BuildPage(ctx, msg.PageIDs[0]); err != nil {
				return err
			}
			invokeCallback(msg.ResultCallback, ResultEnvelope{
				Result: nil,
				Metadata: map[string]any{
					"operation": "build_page",
					"page_id":   msg.PageIDs[0],
				},
			})
			return nil
		}

		options := generator.BuildOptions{
			Force:  msg.Force,
			DryRun: msg.DryRun,
		}
		if len(msg.PageIDs) > 0 {
			options.PageIDs = append([]uuid.UUID(nil), msg.PageIDs...)
		}
		if len(msg.Sections) > 0 {
			options.Sections = normalizeSections(msg.Sections)
		}

		result, err := service.Build(ctx, options)
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		if err != nil {
			return err
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("build.site"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Sections) > 0 {
				fields["sections"] = len(msg.Sections)
			}
			if len(msg.PageIDs) > 0 {
				fields["page_ids"] = len(msg.PageIDs)
			}
			if msg.Force {
				fields["force"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.AssetsOnly {
				fields["assets_only"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DiffSiteHandler performs dry-run builds for diffing workflows.
type DiffSiteHandler struct {
	inner *commands.Handler[DiffSiteCommand]
}

// NewDiffSiteHandler constructs a handler that executes generator dry-runs.
func NewDiffSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DiffSiteCommand]) *DiffSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg DiffSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}

		options := generator.BuildOptions{
			Force:  msg.Force,
			DryRun: true,
		}
		if len(msg.PageIDs) > 0 {
			options.PageIDs = append([]uuid.UUID(nil), msg.PageIDs...)
		}
		if len(msg.Sections) > 0 {
			options.Sections = normalizeSections(msg.Sections)
		}

		result, err := service.Build(ctx, options)
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "diff",
			},
		})
		if err != nil {
			return err
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[DiffSiteCommand]{
		commands.WithLogger[DiffSiteCommand](baseLogger),
		commands.WithOperation[DiffSiteCommand]("build.diff"),
		commands.WithMessageFields(func(msg DiffSiteCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Sections) > 0 {
				fields["sections"] = len(msg.Sections)
			}
			if len(msg.PageIDs) > 0 {
				fields["page_ids"] = len(msg.PageIDs)
			}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DiffSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DiffSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DiffSiteCommand].
func (h *DiffSiteHandler) Execute(ctx context.Context, msg DiffSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears generator artifacts.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CleanSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("build.clean"),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildSitemapHandler regenerates the sitemap on demand.
type BuildSitemapHandler struct {
	inner *commands.Handler[BuildSitemapCommand]
}

// NewBuildSitemapHandler constructs a handler that rewrites sitemap.xml from the current model.
func NewBuildSitemapHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSitemapCommand]) *BuildSitemapHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSitemapCommand) error {
		if service == nil || !gates.generatorEnabled() || !gates.sitemapEnabled() {
			return generator.ErrServiceDisabled
		}
		return service.BuildSitemap(ctx)
	}

	handlerOpts := []commands.HandlerOption[BuildSitemapCommand]{
		commands.WithLogger[BuildSitemapCommand](baseLogger),
		commands.WithOperation[BuildSitemapCommand]("build.sitemap"),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSitemapCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSitemapHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSitemapCommand].
func (h *BuildSitemapHandler) Execute(ctx context.Context, msg BuildSitemapCommand) error {
	return h.inner.Execute(ctx, msg)
}

func normalizeSections(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, section := range values {
		trimmed := strings.TrimSpace(section)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
