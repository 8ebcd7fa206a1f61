package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrSiteBaseURLRequired indicates feeds or the sitemap were enabled without an absolute base URL.
var ErrSiteBaseURLRequired = errors.New("blog config: site base_url must be absolute when feeds or sitemap are enabled")

// ErrSiteBaseURLInvalid indicates the configured base URL could not be parsed.
var ErrSiteBaseURLInvalid = errors.New("blog config: site base_url is invalid")

var ErrContentDirRequired = errors.New("blog config: content dir is required")
var ErrGeneratorOutputDirRequired = errors.New("blog config: generator output_dir is required")
var ErrGeneratorWorkersInvalid = errors.New("blog config: generator workers must be zero or positive")
var ErrGeneratorPageSizeInvalid = errors.New("blog config: generator page_size must be zero or positive")
var ErrThemeNameRequired = errors.New("blog config: theme name is required")
var ErrTaxonomyNameInvalid = errors.New("blog config: taxonomy names must be non-empty lowercase identifiers")
var ErrTaxonomyNameDuplicate = errors.New("blog config: taxonomy names must be unique")
var ErrFeedLimitInvalid = errors.New("blog config: feeds limit must be zero or positive")
var ErrArchivePathRequired = errors.New("blog config: archive path is required when archive is enabled")
var ErrServePortInvalid = errors.New("blog config: serve port must be between 1 and 65535")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

// Config aggregates every runtime setting the blog engine consumes. Fields
// carry koanf tags so the loader can unmarshal the merged configuration tree
// (defaults, blog.toml/blog.yaml, BLOG_ environment, CLI flags) directly.
type Config struct {
	Site       SiteConfig       `koanf:"site"`
	Content    ContentConfig    `koanf:"content"`
	Markdown   MarkdownConfig   `koanf:"markdown"`
	Taxonomies []TaxonomyConfig `koanf:"taxonomies"`
	Feeds      FeedsConfig      `koanf:"feeds"`
	Theme      ThemeConfig      `koanf:"theme"`
	Generator  GeneratorConfig  `koanf:"generator"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Serve      ServeConfig      `koanf:"serve"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SiteConfig carries site-wide metadata surfaced to templates and feeds.
type SiteConfig struct {
	Title       string `koanf:"title"`
	BaseURL     string `koanf:"base_url"`
	Description string `koanf:"description"`
	Language    string `koanf:"language"`
	Author      string `koanf:"author"`
}

// ContentConfig locates and filters content files.
type ContentConfig struct {
	Dir              string `koanf:"dir"`
	Pattern          string `koanf:"pattern"`
	ExcerptSeparator string `koanf:"excerpt_separator"`
	BuildDrafts      bool   `koanf:"build_drafts"`
}

// MarkdownConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownConfig struct {
	Extensions []string        `koanf:"extensions"`
	HardWraps  bool            `koanf:"hard_wraps"`
	SafeMode   bool            `koanf:"safe_mode"`
	Highlight  HighlightConfig `koanf:"highlight"`
}

// HighlightConfig selects the chroma style applied to fenced code blocks.
type HighlightConfig struct {
	Theme       string `koanf:"theme"`
	LineNumbers bool   `koanf:"line_numbers"`
}

// TaxonomyConfig declares one front-matter grouping (tags, categories, ...).
type TaxonomyConfig struct {
	Name     string `koanf:"name"`
	Feed     bool   `koanf:"feed"`
	Template string `koanf:"template"`
}

// FeedsConfig controls RSS and Atom emission.
type FeedsConfig struct {
	Enabled      bool   `koanf:"enabled"`
	RSSFilename  string `koanf:"rss_filename"`
	AtomFilename string `koanf:"atom_filename"`
	Limit        int    `koanf:"limit"`
}

// ThemeConfig selects the active theme.
type ThemeConfig struct {
	Dir  string `koanf:"dir"`
	Name string `koanf:"name"`
}

// GeneratorConfig captures behaviour for the static site build.
type GeneratorConfig struct {
	OutputDir   string `koanf:"output_dir"`
	Clean       bool   `koanf:"clean"`
	Incremental bool   `koanf:"incremental"`
	Workers     int    `koanf:"workers"`
	Sitemap     bool   `koanf:"sitemap"`
	Robots      bool   `koanf:"robots"`
	StaticDir   string `koanf:"static_dir"`
	PageSize    int    `koanf:"page_size"`
}

// ArchiveConfig controls the optional SQLite post index.
type ArchiveConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Path     string        `koanf:"path"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// ServeConfig tunes the development server.
type ServeConfig struct {
	Addr            string        `koanf:"addr"`
	Port            int           `koanf:"port"`
	LiveReload      bool          `koanf:"live_reload"`
	RebuildDebounce time.Duration `koanf:"rebuild_debounce"`
}

// LoggingConfig captures options for runtime logging.
type LoggingConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

// DefaultConfig returns the defaults a fresh blog starts from. Every field can
// be overridden through blog.toml/blog.yaml, BLOG_ environment variables, or
// CLI flags.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Blog",
			BaseURL:  "http://localhost:8080",
			Language: "en",
		},
		Content: ContentConfig{
			Dir:              "content",
			Pattern:          "*.md",
			ExcerptSeparator: "<!--more-->",
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm", "footnote", "typographer"},
			Highlight: HighlightConfig{
				Theme: "friendly",
			},
		},
		Taxonomies: DefaultTaxonomies(),
		Feeds: FeedsConfig{
			Enabled:      true,
			RSSFilename:  "rss.xml",
			AtomFilename: "atom.xml",
			Limit:        100,
		},
		Theme: ThemeConfig{
			Dir:  "themes",
			Name: "default",
		},
		Generator: GeneratorConfig{
			OutputDir:   "public",
			Incremental: true,
			Sitemap:     true,
			Robots:      true,
			StaticDir:   "static",
			PageSize:    10,
		},
		Archive: ArchiveConfig{
			Path:     ".blog/archive.db",
			CacheTTL: 5 * time.Minute,
		},
		Serve: ServeConfig{
			Addr:            "127.0.0.1",
			Port:            8080,
			LiveReload:      true,
			RebuildDebounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultTaxonomies returns the groupings applied when configuration does not
// declare any: tags (with per-term feeds) and categories.
func DefaultTaxonomies() []TaxonomyConfig {
	return []TaxonomyConfig{
		{Name: "tags", Feed: true},
		{Name: "categories"},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	if cfg.Generator.Workers < 0 {
		return ErrGeneratorWorkersInvalid
	}
	if cfg.Generator.PageSize < 0 {
		return ErrGeneratorPageSizeInvalid
	}
	if strings.TrimSpace(cfg.Theme.Name) == "" {
		return ErrThemeNameRequired
	}

	if cfg.Feeds.Enabled || cfg.Generator.Sitemap {
		if err := validateBaseURL(cfg.Site.BaseURL); err != nil {
			return err
		}
	}

	if cfg.Feeds.Limit < 0 {
		return ErrFeedLimitInvalid
	}

	seen := map[string]struct{}{}
	for _, taxonomy := range cfg.Taxonomies {
		name := strings.TrimSpace(taxonomy.Name)
		if name == "" || name != strings.ToLower(name) {
			return fmt.Errorf("%w: %q", ErrTaxonomyNameInvalid, taxonomy.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrTaxonomyNameDuplicate, name)
		}
		seen[name] = struct{}{}
	}

	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Path) == "" {
		return ErrArchivePathRequired
	}

	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrServePortInvalid, cfg.Serve.Port)
	}

	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}

	return nil
}

// Taxonomy looks up a configured taxonomy by name.
func (cfg Config) Taxonomy(name string) (TaxonomyConfig, bool) {
	for _, taxonomy := range cfg.Taxonomies {
		if taxonomy.Name == name {
			return taxonomy, true
		}
	}
	return TaxonomyConfig{}, false
}

func validateBaseURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrSiteBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSiteBaseURLInvalid, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrSiteBaseURLRequired, trimmed)
	}
	return nil
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
