package contentcmd

import (
	"context"
	"strings"
	"time"

	"github.com/Nathan-Furnal/blog/internal/archive"
	"github.com/Nathan-Furnal/blog/internal/commands"
	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const refreshArchiveMessageType = "blog.content.reindex"

// Archiver reconciles the post index with a freshly loaded content model.
type Archiver interface {
	Refresh(ctx context.Context, model *content.Model) (*archive.RefreshResult, error)
}

// RefreshArchiveCommand reindexes the post archive from the content tree.
type RefreshArchiveCommand struct{}

// Type implements command.Message.
func (RefreshArchiveCommand) Type() string { return refreshArchiveMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (RefreshArchiveCommand) Validate() error { return nil }

type refreshHandlerConfig struct {
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// RefreshHandlerOption customises the refresh handler.
type RefreshHandlerOption func(*refreshHandlerConfig)

// RefreshWithCronConfig overrides the cron registration options for the refresh handler.
func RefreshWithCronConfig(config command.HandlerConfig) RefreshHandlerOption {
	return func(cfg *refreshHandlerConfig) {
		cfg.cronConfig = config
	}
}

// RefreshWithCronExpression overrides the cron expression for the refresh handler.
func RefreshWithCronExpression(expression string) RefreshHandlerOption {
	return func(cfg *refreshHandlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// RefreshWithTimeout overrides the default execution timeout.
func RefreshWithTimeout(timeout time.Duration) RefreshHandlerOption {
	return func(cfg *refreshHandlerConfig) {
		cfg.timeout = timeout
	}
}

// RefreshArchiveHandler rebuilds the post index so archive queries reflect the
// current content tree.
type RefreshArchiveHandler struct {
	loader     ModelLoader
	archiver   Archiver
	gates      FeatureGates
	logger     interfaces.Logger
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// NewRefreshArchiveHandler constructs a handler that delegates to the provided loader and archiver.
func NewRefreshArchiveHandler(loader ModelLoader, archiver Archiver, logger interfaces.Logger, gates FeatureGates, opts ...RefreshHandlerOption) *RefreshArchiveHandler {
	cfg := refreshHandlerConfig{
		cronConfig: command.HandlerConfig{
			Expression: "@daily",
		},
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &RefreshArchiveHandler{
		loader:     loader,
		archiver:   archiver,
		gates:      gates,
		logger:     commands.EnsureLogger(logger),
		cronConfig: cfg.cronConfig,
		timeout:    cfg.timeout,
	}
}

// Execute satisfies command.Commander[RefreshArchiveCommand].
func (h *RefreshArchiveHandler) Execute(ctx context.Context, msg RefreshArchiveCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	if h.loader == nil || h.archiver == nil || !h.gates.archiveEnabled() {
		return archive.ErrServiceDisabled
	}

	model, err := h.loader.Load(ctx)
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	result, err := h.archiver.Refresh(ctx, model)
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation": "content.reindex",
		"created":   result.Created,
		"updated":   result.Updated,
		"deleted":   result.Deleted,
		"kept":      result.Kept,
	}).Debug("content.command.reindex.done")
	return nil
}

// CronHandler satisfies command.CronCommand by binding the refresh to a cron runner.
func (h *RefreshArchiveHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), RefreshArchiveCommand{})
	}
}

// CronOptions satisfies command.CronCommand by returning the configured cron metadata.
func (h *RefreshArchiveHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the refresh handler to CLI integrations.
func (h *RefreshArchiveHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for archive reindexing.
func (h *RefreshArchiveHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"archive", "refresh"},
		Group:       "archive",
		Description: "Reindex the post archive from the content tree",
	}
}
