package blog

import (
	"net/http"
	"time"

	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// siteOptions collects the construction overrides applied by New.
type siteOptions struct {
	provider interfaces.LoggerProvider
	parser   interfaces.MarkdownParser
	storage  interfaces.StorageProvider
	client   *http.Client
	workDir  string
	now      func() time.Time
}

// Option customises Site construction.
type Option func(*siteOptions)

// WithLoggerProvider supplies the provider every service logs through.
// Without it the site runs silent.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *siteOptions) {
		o.provider = provider
	}
}

// WithWorkDir resolves relative configuration paths (content, themes, static,
// output, archive) against dir instead of the working directory. The config
// loader reports the project root it discovered for exactly this purpose.
func WithWorkDir(dir string) Option {
	return func(o *siteOptions) {
		o.workDir = dir
	}
}

// WithStorageProvider replaces the filesystem writer build artifacts go
// through. Tests use an in-memory provider to build without touching disk.
func WithStorageProvider(provider interfaces.StorageProvider) Option {
	return func(o *siteOptions) {
		o.storage = provider
	}
}

// WithMarkdownParser replaces the default goldmark parser.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(o *siteOptions) {
		o.parser = parser
	}
}

// WithHTTPClient replaces the HTTP client the importer fetches pages with.
func WithHTTPClient(client *http.Client) Option {
	return func(o *siteOptions) {
		o.client = client
	}
}

// WithNow overrides the clock used for scaffold dates and archive stamps.
func WithNow(now func() time.Time) Option {
	return func(o *siteOptions) {
		o.now = now
	}
}
