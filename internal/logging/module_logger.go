package logging

import (
	"context"
	"maps"

	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

const (
	rootModule      = "blog"
	contentModule   = "blog.content"
	markdownModule  = "blog.markdown"
	taxonomyModule  = "blog.taxonomy"
	generatorModule = "blog.generator"
	themesModule    = "blog.themes"
	serverModule    = "blog.server"
	archiveModule   = "blog.archive"
	importerModule  = "blog.importer"
	linkcheckModule = "blog.linkcheck"
	scaffoldModule  = "blog.scaffold"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ContentLogger returns the logger namespace reserved for content services.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown workflows.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// TaxonomyLogger returns the logger namespace reserved for taxonomy grouping.
func TaxonomyLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, taxonomyModule)
}

// GeneratorLogger returns the logger namespace reserved for site builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// ThemesLogger returns the logger namespace reserved for theme services.
func ThemesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, themesModule)
}

// ServerLogger returns the logger namespace reserved for the dev server.
func ServerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, serverModule)
}

// ArchiveLogger returns the logger namespace reserved for the post archive.
func ArchiveLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, archiveModule)
}

// ImporterLogger returns the logger namespace reserved for the URL importer.
func ImporterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, importerModule)
}

// LinkCheckLogger returns the logger namespace reserved for link resolution.
func LinkCheckLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, linkcheckModule)
}

// ScaffoldLogger returns the logger namespace reserved for content scaffolding.
func ScaffoldLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scaffoldModule)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension; other loggers pass through
// unchanged. The fields map is copied so callers can keep mutating theirs.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
