package contentcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nathan-Furnal/blog/internal/commands"
	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// CheckLinksHandler runs the link checker over a freshly loaded content model.
type CheckLinksHandler struct {
	inner *commands.Handler[CheckLinksCommand]
}

// NewCheckLinksHandler constructs a handler wired to the provided loader and checker.
func NewCheckLinksHandler(loader ModelLoader, checker LinkChecker, logger interfaces.Logger, opts ...commands.HandlerOption[CheckLinksCommand]) *CheckLinksHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CheckLinksCommand) error {
		if loader == nil || checker == nil {
			return ErrCheckUnavailable
		}

		model, err := loader.Load(ctx)
		if err != nil {
			return err
		}

		violations, err := checker.Check(ctx, model, msg.Extra...)
		if err != nil {
			return err
		}

		invokeCheckCallback(msg.ResultCallback, CheckReport{Violations: violations})

		if len(violations) > 0 {
			return fmt.Errorf("%w: %d", ErrViolationsFound, len(violations))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CheckLinksCommand]{
		commands.WithLogger[CheckLinksCommand](baseLogger),
		commands.WithOperation[CheckLinksCommand]("content.check"),
		commands.WithMessageFields(func(msg CheckLinksCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Extra) > 0 {
				fields["extra_routes"] = len(msg.Extra)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CheckLinksCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CheckLinksHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CheckLinksCommand].
func (h *CheckLinksHandler) Execute(ctx context.Context, msg CheckLinksCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportPageHandler fetches an external page and writes it as a draft.
type ImportPageHandler struct {
	inner *commands.Handler[ImportPageCommand]
}

// NewImportPageHandler constructs a handler wired to the provided importer service.
func NewImportPageHandler(service PageImporter, logger interfaces.Logger, opts ...commands.HandlerOption[ImportPageCommand]) *ImportPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportPageCommand) error {
		if service == nil {
			return ErrImportUnavailable
		}

		result, err := service.Import(ctx, importer.ImportInput{
			URL:     msg.URL,
			Section: msg.Section,
			Format:  scaffold.Format(strings.TrimSpace(msg.Format)),
			Force:   msg.Force,
		})
		if err != nil {
			return err
		}

		invokeImportCallback(msg.ResultCallback, result)
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportPageCommand]{
		commands.WithLogger[ImportPageCommand](baseLogger),
		commands.WithOperation[ImportPageCommand]("content.import"),
		commands.WithMessageFields(func(msg ImportPageCommand) map[string]any {
			fields := map[string]any{
				"url": msg.URL,
			}
			if msg.Section != "" {
				fields["section"] = msg.Section
			}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportPageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportPageCommand].
func (h *ImportPageHandler) Execute(ctx context.Context, msg ImportPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCheckCallback(cb CheckCallback, report CheckReport) {
	if cb == nil {
		return
	}
	cb(report)
}

func invokeImportCallback(cb ImportCallback, result *importer.ImportResult) {
	if cb == nil {
		return
	}
	cb(result)
}
