// Package cli assembles the blog command tree. The root command resolves
// configuration once in PersistentPreRunE and hands it to subcommands
// through the command context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	blog "github.com/Nathan-Furnal/blog"
	"github.com/Nathan-Furnal/blog/internal/configload"
	"github.com/Nathan-Furnal/blog/internal/logging/gologger"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// Build metadata, overridden at release time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// sessionKey carries the loaded *session through the command context.
type sessionKey struct{}

// session is what a command needs beyond its own flags: the merged
// configuration, where it came from, and the logger provider built from it.
type session struct {
	cfg  *blog.Config
	file string
	root string
	logs interfaces.LoggerProvider
}

// NewRootCmd builds the blog command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Markdown blog compiler and dev server",
		Long: `blog renders a tree of Markdown files into a static site: pages, section
listings, taxonomy indexes, feeds, a sitemap and robots.txt.

Configuration comes from blog.toml (or blog.yaml) discovered upward from the
working directory, overridden by BLOG_-prefixed environment variables and by
flags.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSession,
	}
	cmd.SetVersionTemplate("blog {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default blog.toml, discovered upward)")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.String("log-level", "", "log level: trace, debug, info, warn or error")
	flags.Int("port", 0, "dev server port")
	flags.Bool("drafts", false, "include draft content")
	flags.StringP("output", "o", "", "output directory")

	_ = cmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(
		newBuildCommand(),
		newServeCommand(),
		newCheckCommand(),
		newNewCommand(),
		newImportCommand(),
		newPostsCommand(),
		newCleanCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadSession resolves configuration and logging for the command about to
// run. Help, completion and version never touch configuration.
func loadSession(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return nil
	}

	flags := cmd.Root().PersistentFlags()
	cfgFile, _ := flags.GetString("config")

	result, err := configload.Load(configload.Options{File: cfgFile, Flags: flags})
	if err != nil {
		return err
	}

	cfg := result.Config
	if verbose, _ := flags.GetBool("verbose"); verbose && !flags.Changed("log-level") {
		cfg.Logging.Level = "debug"
	}

	logs, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, &session{
		cfg:  cfg,
		file: result.File,
		root: result.ProjectRoot,
		logs: logs,
	}))
	return nil
}

// currentSession returns the session loadSession stored for this invocation.
func currentSession(cmd *cobra.Command) (*session, error) {
	sess, ok := cmd.Context().Value(sessionKey{}).(*session)
	if !ok || sess == nil {
		return nil, errors.New("cli: configuration not loaded")
	}
	return sess, nil
}

// newCompletionCommand generates shell completion scripts. Hidden because it
// exists for packaging scripts rather than day-to-day use.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		Hidden:    true,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
