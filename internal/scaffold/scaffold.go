// Package scaffold creates content files with generated front matter so new
// posts start from a consistent skeleton.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the front matter encoding of a scaffolded file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var (
	ErrTargetRequired = errors.New("scaffold: target is required")
	ErrUnknownFormat  = errors.New("scaffold: unknown front matter format")
	ErrFileExists     = errors.New("scaffold: content file already exists")
)

// Config carries the scaffolding defaults taken from site configuration.
type Config struct {
	// ContentDir is the directory scaffolded files are created under.
	ContentDir string
	// Format is the default front matter encoding. TOML when empty.
	Format Format
	// Author is stamped into new front matter unless the input overrides it.
	Author string
}

// CreateInput describes one file to scaffold.
type CreateInput struct {
	// Target is the section-qualified title, e.g. "posts/Going Faster". A
	// bare title creates the file at the content root.
	Target string
	// Format overrides the configured front matter encoding.
	Format Format
	// Section overrides the section derived from Target. Callers whose
	// titles may themselves contain slashes set Section and Title directly.
	Section string
	// Title overrides the title derived from Target.
	Title       string
	Description string
	Author      string
	// Date defaults to the current time.
	Date       time.Time
	Tags       []string
	Categories []string
	Extra      map[string]any
	// Body is written below the front matter.
	Body []byte
	// Force overwrites an existing file.
	Force bool
}

// Result reports where a scaffolded file landed.
type Result struct {
	Path    string
	Section string
	Slug    string
	Title   string
}

// Service scaffolds content files under a configured content directory.
type Service struct {
	cfg    Config
	logger interfaces.Logger
	now    func() time.Time
}

// Option mutates service construction.
type Option func(*Service)

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a scaffolding service rooted at cfg.ContentDir.
func NewService(cfg Config, provider interfaces.LoggerProvider, opts ...Option) *Service {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		cfg.ContentDir = "content"
	}
	if cfg.Format == "" {
		cfg.Format = FormatTOML
	}

	svc := &Service{
		cfg:    cfg,
		logger: logging.ScaffoldLogger(provider),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create writes a new content file and reports its location. Drafts are the
// only thing this produces; publishing is flipping the flag after editing.
func (s *Service) Create(input CreateInput) (*Result, error) {
	section, title := splitTarget(input.Target)
	if override := strings.TrimSpace(input.Section); override != "" {
		section = normalizeSection(override)
	}
	if override := strings.TrimSpace(input.Title); override != "" {
		title = override
	}
	if title == "" {
		return nil, ErrTargetRequired
	}

	slug := content.NormalizeSlug(title)
	if slug == "" {
		return nil, fmt.Errorf("scaffold: cannot derive a slug from %q", title)
	}

	format := input.Format
	if format == "" {
		format = s.cfg.Format
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		author = s.cfg.Author
	}

	data, err := encode(frontMatter{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Author:      author,
		Date:        date,
		Draft:       true,
		Tags:        input.Tags,
		Categories:  input.Categories,
		Extra:       input.Extra,
	}, input.Body, format)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(s.cfg.ContentDir, filepath.FromSlash(section), slug+".md")
	if !input.Force {
		if _, err := os.Stat(target); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, target)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("scaffold: create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("scaffold: write %s: %w", target, err)
	}

	s.logger.Info("scaffolded %s", target)
	return &Result{Path: target, Section: section, Slug: slug, Title: title}, nil
}

// frontMatter is the subset of document metadata scaffolding writes. Every
// optional field has a zero-safe kind so both encoders omit what was never
// set.
type frontMatter struct {
	Title       string         `yaml:"title" toml:"title"`
	Description string         `yaml:"description,omitempty" toml:"description,omitempty"`
	Author      string         `yaml:"author,omitempty" toml:"author,omitempty"`
	Date        time.Time      `yaml:"date" toml:"date"`
	Draft       bool           `yaml:"draft" toml:"draft"`
	Tags        []string       `yaml:"tags,omitempty" toml:"tags,omitempty"`
	Categories  []string       `yaml:"categories,omitempty" toml:"categories,omitempty"`
	Extra       map[string]any `yaml:"extra,omitempty" toml:"extra,omitempty"`
}

func encode(matter frontMatter, body []byte, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		buf.WriteString("+++\n")
		if err := toml.NewEncoder(&buf).Encode(matter); err != nil {
			return nil, fmt.Errorf("scaffold: encode front matter: %w", err)
		}
		buf.WriteString("+++\n")
	case FormatYAML:
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(matter); err != nil {
			return nil, fmt.Errorf("scaffold: encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("scaffold: encode front matter: %w", err)
		}
		buf.WriteString("---\n")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	buf.WriteByte('\n')
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		buf.Write(trimmed)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// splitTarget separates "section/title" into its parts. Nested sections keep
// their path; each segment is slugged so directories stay route-safe.
func splitTarget(target string) (string, string) {
	cleaned := strings.Trim(strings.ReplaceAll(strings.TrimSpace(target), "\\", "/"), "/")
	idx := strings.LastIndex(cleaned, "/")
	if idx < 0 {
		return "", strings.TrimSpace(cleaned)
	}
	return normalizeSection(cleaned[:idx]), strings.TrimSpace(cleaned[idx+1:])
}

func normalizeSection(section string) string {
	var segments []string
	for _, segment := range strings.Split(strings.ReplaceAll(section, "\\", "/"), "/") {
		if slugged := content.NormalizeSlug(segment); slugged != "" {
			segments = append(segments, slugged)
		}
	}
	return strings.Join(segments, "/")
}
