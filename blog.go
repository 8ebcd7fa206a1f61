// Package blog turns a tree of Markdown files into a static site: posts and
// pages with front matter become HTML pages, taxonomy listings, RSS and Atom
// feeds, a sitemap and copied assets. Site wires the services together from
// one configuration; cmd/blog drives it from the command line.
package blog

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	storageadapter "github.com/Nathan-Furnal/blog/internal/adapters/storage"
	"github.com/Nathan-Furnal/blog/internal/archive"
	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/generator"
	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/linkcheck"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/markdown"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
	"github.com/Nathan-Furnal/blog/internal/server"
	"github.com/Nathan-Furnal/blog/internal/taxonomy"
	"github.com/Nathan-Furnal/blog/internal/themes"
	"github.com/Nathan-Furnal/blog/internal/urls"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// Service aliases name the internal service types the Site accessors return,
// so callers outside the module can hold and pass them around.
type (
	ContentService   = content.Service
	MarkdownService  = interfaces.MarkdownService
	TaxonomyService  = taxonomy.Service
	ThemeService     = themes.Service
	GeneratorService = generator.Service
	ArchiveService   = archive.Service
	LinkCheckService = linkcheck.Service
	ImporterService  = importer.Service
	ScaffoldService  = scaffold.Service
)

// Aliases for the values those services exchange.
type (
	Model          = content.Model
	Post           = content.Post
	Page           = content.Page
	BuildOptions   = generator.BuildOptions
	BuildResult    = generator.BuildResult
	TaxonomyIndex  = taxonomy.Index
	Violation      = linkcheck.Violation
	ArchiveRecord  = archive.Record
	ListOptions    = archive.ListOptions
	RefreshResult  = archive.RefreshResult
	ImportInput    = importer.ImportInput
	ImportResult   = importer.ImportResult
	ImportedPage   = importer.Page
	CreateInput    = scaffold.CreateInput
	ScaffoldResult = scaffold.Result
	Format         = scaffold.Format
)

// Front matter encodings accepted by the scaffolder and importer.
const (
	FormatTOML = scaffold.FormatTOML
	FormatYAML = scaffold.FormatYAML
)

// Sentinels callers match with errors.Is.
var (
	ErrGeneratorDisabled = generator.ErrServiceDisabled
	ErrArchiveDisabled   = archive.ErrServiceDisabled
	ErrThemeNotFound     = themes.ErrThemeNotFound
)

// Site is the assembled blog engine. One Site serves one content tree and one
// output tree; construct it with New and release it with Close.
type Site struct {
	cfg      Config
	provider interfaces.LoggerProvider
	logger   interfaces.Logger

	contentDir string
	staticDir  string
	outputDir  string
	themeDir   string

	urls      *urls.Resolver
	markdown  *markdown.Service
	content   *content.Service
	taxonomy  *taxonomy.Service
	themes    *themes.Service
	generator generator.Service
	archive   archive.Service
	linkcheck *linkcheck.Service
	scaffold  *scaffold.Service
	importer  *importer.Service
}

// New validates cfg and wires the site services in dependency order:
// markdown, content, taxonomies, theme, generator, then the archive, link
// checker, scaffolder and importer. Relative configuration paths resolve
// against the working directory unless WithWorkDir points at the project
// root.
func New(cfg Config, opts ...Option) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options siteOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	root := strings.TrimSpace(options.workDir)

	resolver, err := urls.NewResolver(cfg.Site.BaseURL)
	if err != nil {
		return nil, err
	}

	contentDir := resolvePath(root, cfg.Content.Dir)
	staticDir := resolvePath(root, cfg.Generator.StaticDir)
	outputDir := resolvePath(root, cfg.Generator.OutputDir)
	themeDir := resolvePath(root, cfg.Theme.Dir)

	markdownSvc, err := markdown.NewService(markdown.Config{
		BasePath:  contentDir,
		Pattern:   cfg.Content.Pattern,
		Recursive: true,
		Parser:    parseOptions(cfg.Markdown),
	}, options.parser, options.provider)
	if err != nil {
		return nil, err
	}

	contentSvc, err := content.NewService(content.Config{
		Author:           cfg.Site.Author,
		ExcerptSeparator: cfg.Content.ExcerptSeparator,
		BuildDrafts:      cfg.Content.BuildDrafts,
	}, markdownSvc, resolver, options.provider)
	if err != nil {
		return nil, err
	}

	taxonomySvc, err := taxonomy.NewService(taxonomyDefinitions(cfg.Taxonomies), resolver, options.provider)
	if err != nil {
		return nil, err
	}

	themeSvc, err := themes.NewService(themes.Config{
		Dir:     themeDir,
		Name:    cfg.Theme.Name,
		BaseURL: cfg.Site.BaseURL,
	}, options.provider)
	if err != nil {
		return nil, err
	}

	storageProvider := options.storage
	if storageProvider == nil {
		base := strings.Trim(filepath.ToSlash(cfg.Generator.OutputDir), "/")
		storageProvider = storageadapter.NewFilesystemProvider(outputDir, base)
	}

	generatorSvc, err := generator.NewService(generator.Config{
		OutputDir:       cfg.Generator.OutputDir,
		StaticDir:       staticDir,
		BaseURL:         cfg.Site.BaseURL,
		SiteTitle:       cfg.Site.Title,
		SiteDescription: cfg.Site.Description,
		Language:        cfg.Site.Language,
		Author:          cfg.Site.Author,
		CleanBuild:      cfg.Generator.Clean,
		Incremental:     cfg.Generator.Incremental,
		Workers:         cfg.Generator.Workers,
		PageSize:        cfg.Generator.PageSize,
		GenerateSitemap: cfg.Generator.Sitemap,
		GenerateRobots:  cfg.Generator.Robots,
		FeedsEnabled:    cfg.Feeds.Enabled,
		RSSFilename:     cfg.Feeds.RSSFilename,
		AtomFilename:    cfg.Feeds.AtomFilename,
		FeedLimit:       cfg.Feeds.Limit,
	}, generator.Dependencies{
		Content:  contentSvc,
		Taxonomy: taxonomySvc,
		Themes:   themeSvc,
		URLs:     resolver,
		Storage:  storageProvider,
		Logger:   logging.GeneratorLogger(options.provider),
	})
	if err != nil {
		return nil, err
	}

	archiveSvc := archive.NewDisabledService()
	if cfg.Archive.Enabled {
		db, err := archive.Open(resolvePath(root, cfg.Archive.Path))
		if err != nil {
			return nil, err
		}
		var archiveOpts []archive.Option
		if options.now != nil {
			archiveOpts = append(archiveOpts, archive.WithNow(options.now))
		}
		svc, err := archive.NewService(archive.Config{
			Path:     cfg.Archive.Path,
			CacheTTL: cfg.Archive.CacheTTL,
		}, archive.Dependencies{DB: db, Logger: options.provider}, archiveOpts...)
		if err != nil {
			db.Close()
			return nil, err
		}
		archiveSvc = svc
	}

	var scaffoldOpts []scaffold.Option
	if options.now != nil {
		scaffoldOpts = append(scaffoldOpts, scaffold.WithNow(options.now))
	}
	scaffoldSvc := scaffold.NewService(scaffold.Config{
		ContentDir: contentDir,
		Author:     cfg.Site.Author,
	}, options.provider, scaffoldOpts...)

	var importerOpts []importer.Option
	if options.client != nil {
		importerOpts = append(importerOpts, importer.WithHTTPClient(options.client))
	}
	importerSvc, err := importer.NewService(importer.Config{}, scaffoldSvc, options.provider, importerOpts...)
	if err != nil {
		return nil, err
	}

	return &Site{
		cfg:        cfg,
		provider:   options.provider,
		logger:     logging.ModuleLogger(options.provider, ""),
		contentDir: contentDir,
		staticDir:  staticDir,
		outputDir:  outputDir,
		themeDir:   themeDir,
		urls:       resolver,
		markdown:   markdownSvc,
		content:    contentSvc,
		taxonomy:   taxonomySvc,
		themes:     themeSvc,
		generator:  generatorSvc,
		archive:    archiveSvc,
		linkcheck:  linkcheck.NewService(linkcheck.Config{BaseURL: cfg.Site.BaseURL}, options.provider),
		scaffold:   scaffoldSvc,
		importer:   importerSvc,
	}, nil
}

// Build renders the site. After a successful full build the archive index is
// refreshed when it is enabled; scoped, dry-run and assets-only builds leave
// it alone.
func (s *Site) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	result, err := s.generator.Build(ctx, opts)
	if err != nil {
		return result, err
	}
	if s.cfg.Archive.Enabled && fullBuild(opts) {
		if err := s.refreshArchive(ctx); err != nil {
			s.logger.Warn("archive refresh after build failed: %v", err)
		}
	}
	return result, nil
}

// Check loads the content tree and reports every internal link destination
// that will not resolve on the published site. Taxonomy routes, copied asset
// paths and generated files count as resolvable.
func (s *Site) Check(ctx context.Context) ([]Violation, error) {
	model, err := s.content.Load(ctx)
	if err != nil {
		return nil, err
	}
	index, err := s.taxonomy.Build(model)
	if err != nil {
		return nil, err
	}
	extra := index.Routes()
	assets, err := s.assetRoutes()
	if err != nil {
		return nil, err
	}
	extra = append(extra, assets...)
	extra = append(extra, s.generatedFiles()...)
	return s.linkcheck.Check(ctx, model, extra...)
}

// Clean removes the output tree.
func (s *Site) Clean(ctx context.Context) error {
	return s.generator.Clean(ctx)
}

// Serve builds the site, serves the output tree and rebuilds on content,
// theme and static changes until ctx is cancelled.
func (s *Site) Serve(ctx context.Context) error {
	srv, err := server.New(server.Config{
		Addr:            s.cfg.Serve.Addr,
		Port:            s.cfg.Serve.Port,
		OutputDir:       s.outputDir,
		WatchDirs:       []string{s.contentDir, s.themeDir, s.staticDir},
		LiveReload:      s.cfg.Serve.LiveReload,
		RebuildDebounce: s.cfg.Serve.RebuildDebounce,
	}, func(ctx context.Context) error {
		_, err := s.Build(ctx, BuildOptions{})
		return err
	}, s.provider)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// Close releases the resources the site holds, the archive database included.
func (s *Site) Close() error {
	if s == nil || s.archive == nil {
		return nil
	}
	return s.archive.Close()
}

// Config returns the validated configuration the site was built from.
func (s *Site) Config() Config {
	return s.cfg
}

// Content returns the content service that models posts, pages and sections.
func (s *Site) Content() *ContentService {
	return s.content
}

// Markdown returns the Markdown service the content tree is parsed with.
func (s *Site) Markdown() MarkdownService {
	return s.markdown
}

// Taxonomies returns the taxonomy service.
func (s *Site) Taxonomies() *TaxonomyService {
	return s.taxonomy
}

// Themes returns the active theme service.
func (s *Site) Themes() *ThemeService {
	return s.themes
}

// Generator returns the static site generator.
func (s *Site) Generator() GeneratorService {
	return s.generator
}

// Archive returns the post archive. When the archive is disabled in
// configuration, its operations fail with ErrArchiveDisabled.
func (s *Site) Archive() ArchiveService {
	return s.archive
}

// ArchiveEnabled reports whether the archive index is configured.
func (s *Site) ArchiveEnabled() bool {
	if s == nil {
		return false
	}
	return s.cfg.Archive.Enabled
}

// LinkCheck returns the internal link checker.
func (s *Site) LinkCheck() *LinkCheckService {
	return s.linkcheck
}

// Scaffold returns the content scaffolder behind "blog new".
func (s *Site) Scaffold() *ScaffoldService {
	return s.scaffold
}

// Importer returns the page importer behind "blog import".
func (s *Site) Importer() *ImporterService {
	return s.importer
}

func (s *Site) refreshArchive(ctx context.Context) error {
	model, err := s.content.Load(ctx)
	if err != nil {
		return err
	}
	_, err = s.archive.Refresh(ctx, model)
	return err
}

// assetRoutes lists the routes asset copying will publish so links to
// stylesheets and images resolve during checks.
func (s *Site) assetRoutes() ([]string, error) {
	routes, err := appendAssetRoutes(nil, s.staticDir, "")
	if err != nil {
		return nil, err
	}
	if s.themes != nil {
		routes, err = appendAssetRoutes(routes, s.themes.AssetsDir(), "assets")
		if err != nil {
			return nil, err
		}
	}
	return routes, nil
}

// generatedFiles lists the non-page artifacts a full build emits.
func (s *Site) generatedFiles() []string {
	var files []string
	if s.cfg.Feeds.Enabled {
		files = append(files, path.Join("/", s.cfg.Feeds.RSSFilename), path.Join("/", s.cfg.Feeds.AtomFilename))
	}
	if s.cfg.Generator.Sitemap {
		files = append(files, "/sitemap.xml")
	}
	if s.cfg.Generator.Robots {
		files = append(files, "/robots.txt")
	}
	return files
}

func fullBuild(opts BuildOptions) bool {
	return !opts.DryRun && !opts.AssetsOnly && len(opts.Sections) == 0 && len(opts.PageIDs) == 0
}

func appendAssetRoutes(routes []string, dir, prefix string) ([]string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return routes, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return routes, nil
		}
		return routes, err
	}
	if !info.IsDir() {
		return routes, nil
	}

	err = filepath.WalkDir(dir, func(fsPath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := entry.Name()
		if entry.IsDir() {
			if fsPath != dir && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, relErr := filepath.Rel(dir, fsPath)
		if relErr != nil {
			return relErr
		}
		routes = append(routes, path.Join("/", prefix, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return routes, err
	}
	return routes, nil
}

func resolvePath(root, p string) string {
	p = strings.TrimSpace(p)
	if root == "" || p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func parseOptions(cfg MarkdownConfig) interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions:     append([]string(nil), cfg.Extensions...),
		HardWraps:      cfg.HardWraps,
		SafeMode:       cfg.SafeMode,
		HighlightTheme: cfg.Highlight.Theme,
		LineNumbers:    cfg.Highlight.LineNumbers,
	}
}

func taxonomyDefinitions(cfgs []TaxonomyConfig) []taxonomy.Definition {
	defs := make([]taxonomy.Definition, 0, len(cfgs))
	for _, tc := range cfgs {
		defs = append(defs, taxonomy.Definition{
			Name:     tc.Name,
			Feed:     tc.Feed,
			Template: tc.Template,
		})
	}
	return defs
}
