package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should support reusable parser instances and extension
// toggles so hosts can tailor rendering without rewriting the service.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions     []string
	Sanitize       bool
	HardWraps      bool
	SafeMode       bool
	HighlightTheme string
	LineNumbers    bool
}

// MarkdownService exposes the file workflows the blog engine is built on:
// loading Markdown documents from disk and converting them into HTML.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// Document represents a Markdown file with parsed metadata and content. The
// struct is shared between the interfaces package and internal implementations
// so consumers can depend on a stable contract.
type Document struct {
	FilePath    string
	Section     string
	FrontMatter FrontMatter
	Body        []byte
	BodyHTML    []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (SHA-256) so
	// incremental builds can detect changes without re-rendering unchanged files.
	Checksum []byte
}

// FrontMatter models metadata extracted from content files. Field tags cover
// the three supported encodings (YAML, TOML, JSON) so the same struct round
// trips through parsing and scaffolding.
type FrontMatter struct {
	Title       string         `yaml:"title" toml:"title" json:"title"`
	Slug        string         `yaml:"slug,omitempty" toml:"slug,omitempty" json:"slug,omitempty"`
	Description string         `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Template    string         `yaml:"template,omitempty" toml:"template,omitempty" json:"template,omitempty"`
	Author      string         `yaml:"author,omitempty" toml:"author,omitempty" json:"author,omitempty"`
	Date        time.Time      `yaml:"date" toml:"date" json:"date"`
	Updated     time.Time      `yaml:"updated,omitempty" toml:"updated,omitempty" json:"updated,omitempty"`
	Draft       bool           `yaml:"draft" toml:"draft" json:"draft"`
	Weight      int            `yaml:"weight,omitempty" toml:"weight,omitempty" json:"weight,omitempty"`
	Tags        []string       `yaml:"tags,omitempty" toml:"tags,omitempty" json:"tags,omitempty"`
	Categories  []string       `yaml:"categories,omitempty" toml:"categories,omitempty" json:"categories,omitempty"`
	Aliases     []string       `yaml:"aliases,omitempty" toml:"aliases,omitempty" json:"aliases,omitempty"`
	Extra       map[string]any `yaml:"extra,omitempty" toml:"extra,omitempty" json:"extra,omitempty"`
	Raw         map[string]any `yaml:"-" toml:"-" json:"-"`
}

// Robots returns the per-page robots directive carried in extra.robots, or an
// empty string when the page does not override indexing behaviour.
func (fm FrontMatter) Robots() string {
	if fm.Extra == nil {
		return ""
	}
	if v, ok := fm.Extra["robots"].(string); ok {
		return v
	}
	return ""
}

// Taxonomy returns the front-matter terms for the named taxonomy (tags and
// categories are dedicated fields; other taxonomies resolve through Extra).
func (fm FrontMatter) Taxonomy(name string) []string {
	switch name {
	case "tags":
		return fm.Tags
	case "categories":
		return fm.Categories
	}
	if fm.Extra == nil {
		return nil
	}
	switch v := fm.Extra[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Parser    ParseOptions
}
