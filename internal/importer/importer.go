// Package importer turns an external web page into a draft post: fetch the
// URL, extract its metadata, convert the body HTML to Markdown, and scaffold
// a content file ready for editing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var (
	ErrURLRequired    = errors.New("importer: url is required")
	ErrWriterRequired = errors.New("importer: draft writer is required")
	ErrNoHandler      = errors.New("importer: no handler accepts this content")
)

const (
	defaultSection   = "posts"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "blog-importer"
)

// DraftWriter persists an imported page as a draft content file. The
// scaffolding service satisfies it.
type DraftWriter interface {
	Create(input scaffold.CreateInput) (*scaffold.Result, error)
}

// Config tunes fetching and where drafts land.
type Config struct {
	// Section receives imported drafts when the input does not name one.
	Section string
	// UserAgent identifies the importer to the source site.
	UserAgent string
	// Timeout bounds the fetch when no custom client is supplied.
	Timeout time.Duration
}

// ImportInput names the page to import.
type ImportInput struct {
	URL     string
	Section string
	Format  scaffold.Format
	// Force overwrites an existing draft with the same slug.
	Force bool
}

// ImportResult pairs the extracted page with the file it became.
type ImportResult struct {
	Page *Page
	File *scaffold.Result
}

// Service imports external pages as draft posts.
type Service struct {
	cfg      Config
	fetcher  *Fetcher
	writer   DraftWriter
	logger   interfaces.Logger
	client   *http.Client
	handlers []ContentHandler
}

// Option mutates service construction.
type Option func(*Service)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// WithHandler registers a source-specific handler ahead of the HTML fallback.
func WithHandler(handler ContentHandler) Option {
	return func(s *Service) {
		if handler != nil {
			s.handlers = append(s.handlers, handler)
		}
	}
}

// NewService builds an importer writing drafts through writer.
func NewService(cfg Config, writer DraftWriter, provider interfaces.LoggerProvider, opts ...Option) (*Service, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if strings.TrimSpace(cfg.Section) == "" {
		cfg.Section = defaultSection
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	svc := &Service{
		cfg:    cfg,
		writer: writer,
		logger: logging.ImporterLogger(provider),
	}
	for _, opt := range opts {
		opt(svc)
	}

	client := svc.client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	svc.fetcher = NewFetcher(client, cfg.UserAgent, svc.handlers...)
	return svc, nil
}

// Import fetches the page and writes it as a draft, reporting both the
// extracted content and the file it became.
func (s *Service) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rawURL := strings.TrimSpace(input.URL)
	if rawURL == "" {
		return nil, ErrURLRequired
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("importer: parse url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("importer: unsupported scheme %q", parsed.Scheme)
	}

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = fallbackTitle(parsed)
	}

	section := strings.TrimSpace(input.Section)
	if section == "" {
		section = s.cfg.Section
	}

	file, err := s.writer.Create(scaffold.CreateInput{
		Section:     section,
		Title:       title,
		Format:      input.Format,
		Description: page.Description,
		Author:      page.Author,
		Date:        page.Published,
		Body:        []byte(page.Markdown),
		Extra:       map[string]any{"source": rawURL},
		Force:       input.Force,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported %s into %s", rawURL, file.Path)
	return &ImportResult{Page: page, File: file}, nil
}

// fallbackTitle names a page whose markup carries no usable title. The last
// path segment reads well enough once its separators become spaces.
func fallbackTitle(parsed *url.URL) string {
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := segments[len(segments)-1]
	last = strings.TrimSuffix(last, path.Ext(last))
	last = strings.ReplaceAll(last, "-", " ")
	last = strings.ReplaceAll(last, "_", " ")
	if title := strings.TrimSpace(last); title != "" {
		return title
	}
	return parsed.Host
}
