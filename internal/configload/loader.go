// Package configload assembles the runtime configuration from layered
// sources: built-in defaults, a blog.toml/blog.yaml file discovered upward
// from the working directory, BLOG_-prefixed environment variables, and
// explicitly-set CLI flags, in that order of precedence.
package configload

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/Nathan-Furnal/blog/internal/runtimeconfig"
)

// envPrefix is stripped from environment variables before they are merged.
// Double underscores separate nesting levels: BLOG_SITE__BASE_URL sets
// site.base_url.
const envPrefix = "BLOG_"

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

// configFileNames are probed in order inside each candidate directory.
var configFileNames = []string{"blog.toml", "blog.yaml", "blog.yml"}

// flagConfigKeys maps persistent CLI flags onto nested configuration keys.
// Flags without an entry fall back to a kebab-to-snake rename, which leaves
// command-scoped flags (--force, --dry-run) outside the config tree.
var flagConfigKeys = map[string]string{
	"log-level": "logging.level",
	"port":      "serve.port",
	"drafts":    "content.build_drafts",
	"output":    "generator.output_dir",
}

// Options controls a single configuration load.
type Options struct {
	// File is an explicit config file path; when set, upward discovery is
	// skipped and the file's directory becomes the project root.
	File string
	// Flags contribute explicitly-changed values as the highest layer.
	Flags *pflag.FlagSet
	// WorkDir overrides the starting directory for discovery (tests).
	WorkDir string
}

// Result carries the merged configuration along with where it came from.
type Result struct {
	Config      *runtimeconfig.Config
	File        string
	ProjectRoot string
}

// Load merges defaults, config file, environment, and flags into a validated
// runtime configuration.
func Load(opts Options) (*Result, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("configload: resolve working directory: %w", err)
		}
		workDir = cwd
	}

	cfgFile := opts.File
	projectRoot := workDir
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("configload: resolve config path %s: %w", cfgFile, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("configload: config file %s: %w", cfgFile, err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	} else {
		if root := findProjectRootUpward(workDir); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		}
	}

	// A .env beside the config seeds the environment layer.
	if envFile := filepath.Join(projectRoot, ".env"); fileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("configload: load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("configload: load defaults: %w", err)
	}

	if cfgFile != "" {
		parser, err := parserFor(cfgFile)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(cfgFile), parser); err != nil {
			return nil, fmt.Errorf("configload: read config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyTransform), nil); err != nil {
		return nil, fmt.Errorf("configload: load environment: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagConfigKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("configload: load flags: %w", err)
		}
	}

	var cfg runtimeconfig.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("configload: decode config: %w", err)
	}

	expandConfigEnvVars(&cfg)
	resolveConfigPaths(&cfg, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Result{
		Config:      &cfg,
		File:        cfgFile,
		ProjectRoot: projectRoot,
	}, nil
}

// defaultsMap flattens runtimeconfig.DefaultConfig into dotted koanf keys so
// the merged tree always carries a complete baseline.
func defaultsMap() map[string]any {
	def := runtimeconfig.DefaultConfig()

	taxonomies := make([]map[string]any, 0, len(def.Taxonomies))
	for _, taxonomy := range def.Taxonomies {
		taxonomies = append(taxonomies, map[string]any{
			"name":     taxonomy.Name,
			"feed":     taxonomy.Feed,
			"template": taxonomy.Template,
		})
	}

	return map[string]any{
		"site.title":       def.Site.Title,
		"site.base_url":    def.Site.BaseURL,
		"site.description": def.Site.Description,
		"site.language":    def.Site.Language,
		"site.author":      def.Site.Author,

		"content.dir":               def.Content.Dir,
		"content.pattern":           def.Content.Pattern,
		"content.excerpt_separator": def.Content.ExcerptSeparator,
		"content.build_drafts":      def.Content.BuildDrafts,

		"markdown.extensions":             def.Markdown.Extensions,
		"markdown.hard_wraps":             def.Markdown.HardWraps,
		"markdown.safe_mode":              def.Markdown.SafeMode,
		"markdown.highlight.theme":        def.Markdown.Highlight.Theme,
		"markdown.highlight.line_numbers": def.Markdown.Highlight.LineNumbers,

		"taxonomies": taxonomies,

		"feeds.enabled":       def.Feeds.Enabled,
		"feeds.rss_filename":  def.Feeds.RSSFilename,
		"feeds.atom_filename": def.Feeds.AtomFilename,
		"feeds.limit":         def.Feeds.Limit,

		"theme.dir":  def.Theme.Dir,
		"theme.name": def.Theme.Name,

		"generator.output_dir":  def.Generator.OutputDir,
		"generator.clean":       def.Generator.Clean,
		"generator.incremental": def.Generator.Incremental,
		"generator.workers":     def.Generator.Workers,
		"generator.sitemap":     def.Generator.Sitemap,
		"generator.robots":      def.Generator.Robots,
		"generator.static_dir":  def.Generator.StaticDir,
		"generator.page_size":   def.Generator.PageSize,

		"archive.enabled":   def.Archive.Enabled,
		"archive.path":      def.Archive.Path,
		"archive.cache_ttl": def.Archive.CacheTTL,

		"serve.addr":             def.Serve.Addr,
		"serve.port":             def.Serve.Port,
		"serve.live_reload":      def.Serve.LiveReload,
		"serve.rebuild_debounce": def.Serve.RebuildDebounce,

		"logging.level":      def.Logging.Level,
		"logging.format":     def.Logging.Format,
		"logging.add_source": def.Logging.AddSource,
	}
}

// envKeyTransform rewrites BLOG_SITE__BASE_URL to site.base_url.
func envKeyTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ktoml.Parser(), nil
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	default:
		return nil, fmt.Errorf("configload: unsupported config format %q", filepath.Ext(path))
	}
}

// findConfigFile returns the first config file present in dir.
func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a blog config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func resolveConfigPaths(cfg *runtimeconfig.Config, projectRoot string) {
	cfg.Content.Dir = resolvePathRelativeTo(cfg.Content.Dir, projectRoot)
	cfg.Theme.Dir = resolvePathRelativeTo(cfg.Theme.Dir, projectRoot)
	cfg.Generator.OutputDir = resolvePathRelativeTo(cfg.Generator.OutputDir, projectRoot)
	cfg.Generator.StaticDir = resolvePathRelativeTo(cfg.Generator.StaticDir, projectRoot)
	cfg.Archive.Path = resolvePathRelativeTo(cfg.Archive.Path, projectRoot)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values,
// leaving unknown variables untouched.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

func expandConfigEnvVars(cfg *runtimeconfig.Config) {
	cfg.Site.BaseURL = expandEnvVars(cfg.Site.BaseURL)
	cfg.Content.Dir = expandEnvVars(cfg.Content.Dir)
	cfg.Theme.Dir = expandEnvVars(cfg.Theme.Dir)
	cfg.Generator.OutputDir = expandEnvVars(cfg.Generator.OutputDir)
	cfg.Generator.StaticDir = expandEnvVars(cfg.Generator.StaticDir)
	cfg.Archive.Path = expandEnvVars(cfg.Archive.Path)
}
