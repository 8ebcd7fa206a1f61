// Package generator renders the content model through the active theme and
// writes the publishable output tree: HTML pages, feeds, sitemap, robots.txt,
// copied assets and an incremental build manifest.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/taxonomy"
	"github.com/Nathan-Furnal/blog/internal/urls"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	"github.com/Nathan-Furnal/blog/pkg/storage"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrRouteConflict indicates two planned jobs would write the same output
	// path, such as a page whose slug matches a taxonomy route.
	ErrRouteConflict    = errors.New("generator: route conflict")
	errContentRequired  = errors.New("generator: content loader is required")
	errThemeRequired    = errors.New("generator: theme engine is required")
	errResolverRequired = errors.New("generator: url resolver is required")
	errOutputDirMissing = errors.New("generator: output directory is required")
)

// Service describes the static site build contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	BuildPage(ctx context.Context, pageID uuid.UUID) error
	BuildAssets(ctx context.Context) error
	BuildSitemap(ctx context.Context) error
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	StaticDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	Language        string
	Author          string
	CleanBuild      bool
	Incremental     bool
	Workers         int
	PageSize        int
	GenerateSitemap bool
	GenerateRobots  bool
	FeedsEnabled    bool
	RSSFilename     string
	AtomFilename    string
	FeedLimit       int
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Sections limits rendering to posts and pages in the named sections.
	Sections []string
	// PageIDs limits rendering to specific documents.
	PageIDs []uuid.UUID
	// Force re-renders and re-copies everything, ignoring the manifest.
	Force bool
	// DryRun renders without writing any artifact.
	DryRun bool
	// AssetsOnly skips page rendering and only copies assets.
	AssetsOnly bool
}

// scoped reports whether the run covers only part of the site. Scoped runs
// leave listings, feeds, sitemap and manifest pruning to the next full build.
func (o BuildOptions) scoped() bool {
	return len(o.Sections) > 0 || len(o.PageIDs) > 0
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AliasesBuilt  int
	AssetsBuilt   int
	AssetsSkipped int
	FeedsBuilt    int
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
}

// RenderedPage captures one rendered document and its output placement.
type RenderedPage struct {
	ID       uuid.UUID
	Kind     jobKind
	Route    string
	Template string
	Output   string
	HTML     string
	Checksum string
	Metadata DependencyMetadata
	Duration time.Duration
}

// RenderDiagnostic records the outcome of a single render attempt.
type RenderDiagnostic struct {
	ID       uuid.UUID
	Kind     jobKind
	Route    string
	Template string
	Skipped  bool
	Duration time.Duration
	Err      error
}

type renderOutcome struct {
	diagnostic RenderDiagnostic
	page       RenderedPage
	skipped    bool
	err        error
}

// ContentLoader produces the content model for a build.
type ContentLoader interface {
	Load(ctx context.Context) (*content.Model, error)
}

// TaxonomyBuilder groups the model's posts into configured taxonomies.
type TaxonomyBuilder interface {
	Build(model *content.Model) (*taxonomy.Index, error)
}

// ThemeEngine is the slice of the theme service the generator consumes.
type ThemeEngine interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	HasTemplate(name string) bool
	Name() string
	AssetsDir() string
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Content  ContentLoader
	Taxonomy TaxonomyBuilder
	Themes   ThemeEngine
	URLs     *urls.Resolver
	Storage  interfaces.StorageProvider
	Logger   interfaces.Logger
}

// NewService wires a generator with the provided configuration and
// dependencies. Content, theme engine and URL resolver are mandatory.
func NewService(cfg Config, deps Dependencies) (Service, error) {
	if deps.Content == nil {
		return nil, errContentRequired
	}
	if deps.Themes == nil {
		return nil, errThemeRequired
	}
	if deps.URLs == nil {
		return nil, errResolverRequired
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, errOutputDirMissing
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = defaultFeedLimit
	}
	if strings.TrimSpace(cfg.RSSFilename) == "" {
		cfg.RSSFilename = defaultRSSFilename
	}
	if strings.TrimSpace(cfg.AtomFilename) == "" {
		cfg.AtomFilename = defaultAtomFilename
	}
	return &service{
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
	}, nil
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg  Config
	deps Dependencies
	now  func() time.Time
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Jobs)),
	}

	var errorsSlice []error
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")

	manifest, manifestErr := s.loadManifest(ctx)
	if manifestErr != nil {
		errorsSlice = append(errorsSlice, manifestErr)
	}
	if manifest == nil || opts.Force {
		manifest = newBuildManifest()
	}

	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.removeOutput(ctx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		manifest = newBuildManifest()
	}

	var (
		mu       sync.Mutex
		rendered = make([]RenderedPage, 0, len(buildCtx.Jobs))
		pageKeys = map[string]struct{}{}
	)
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.diagnostic.ID != uuid.Nil {
			pageKeys[manifest.pageKey(outcome.diagnostic.ID)] = struct{}{}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	if !opts.AssetsOnly {
		if err := s.renderAll(ctx, buildCtx, manifest, baseDir, collect); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if opts.DryRun {
		result.Rendered = rendered
		result.Duration = time.Since(start)
		return result, joinBuildErrors(result, errorsSlice)
	}

	writer := newArtifactWriter(s.deps.Storage)

	if !opts.AssetsOnly {
		if err := s.persistPages(ctx, writer, baseDir, rendered); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		if !opts.scoped() {
			aliases, err := s.persistAliases(ctx, writer, baseDir, buildCtx)
			if err != nil {
				errorsSlice = append(errorsSlice, err)
			}
			result.AliasesBuilt = aliases
		}
	}

	assetSummary, assetKeys, err := s.copyAssets(ctx, writer, manifest, baseDir, opts.Force)
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	} else {
		result.AssetsBuilt = assetSummary.Built
		result.AssetsSkipped = assetSummary.Skipped
	}

	if !opts.AssetsOnly && !opts.scoped() {
		if s.cfg.FeedsEnabled {
			feeds, err := s.writeFeeds(ctx, writer, baseDir, buildFeedDocuments(s.cfg, s.deps.URLs, buildCtx), buildCtx.GeneratedAt)
			if err != nil {
				errorsSlice = append(errorsSlice, err)
			}
			result.FeedsBuilt = feeds
		}
		if s.cfg.GenerateSitemap {
			if err := s.writeSitemap(ctx, writer, baseDir, buildCtx); err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
		if s.cfg.GenerateRobots {
			if err := s.writeRobots(ctx, writer, baseDir, buildCtx.GeneratedAt); err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for i := range rendered {
			page := rendered[i]
			if page.ID == uuid.Nil || page.Checksum == "" {
				continue
			}
			manifest.setPage(manifestPage{
				ID:           page.ID.String(),
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Metadata.Hash,
				Checksum:     page.Checksum,
				LastModified: page.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		if !opts.scoped() && !opts.AssetsOnly {
			manifest.prunePages(pageKeys)
			manifest.pruneAssets(assetKeys)
		}
		if err := s.persistManifest(ctx, writer, manifest, baseDir); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)

	s.deps.Logger.Info("build finished",
		"pages", result.PagesBuilt,
		"skipped", result.PagesSkipped,
		"assets", result.AssetsBuilt,
		"feeds", result.FeedsBuilt,
		"duration", result.Duration,
		"errors", len(errorsSlice),
	)
	return result, joinBuildErrors(result, errorsSlice)
}

func joinBuildErrors(result *BuildResult, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	result.Errors = append(result.Errors, errs...)
	return errors.Join(errs...)
}

func (s *service) renderAll(
	ctx context.Context,
	buildCtx *BuildContext,
	manifest *buildManifest,
	baseDir string,
	collect func(renderOutcome),
) error {
	workers := s.effectiveWorkerCount(len(buildCtx.Jobs))
	if workers <= 1 || len(buildCtx.Jobs) <= 1 {
		for _, job := range buildCtx.Jobs {
			select {
			case <-ctx.Done():
				collect(cancelledOutcome(job, ctx.Err()))
				return ctx.Err()
			default:
				collect(s.renderJob(ctx, job, manifest, baseDir))
			}
		}
		return nil
	}

	jobs := make(chan *pageJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					collect(cancelledOutcome(job, ctx.Err()))
					return
				default:
					collect(s.renderJob(ctx, job, manifest, baseDir))
				}
			}
		}()
	}

	var err error
feed:
	for _, job := range buildCtx.Jobs {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- job:
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

func cancelledOutcome(job *pageJob, err error) renderOutcome {
	return renderOutcome{
		diagnostic: RenderDiagnostic{
			ID:       job.ID,
			Kind:     job.Kind,
			Route:    job.Route,
			Template: job.Template,
			Err:      err,
		},
		err: err,
	}
}

func (s *service) renderJob(
	ctx context.Context,
	job *pageJob,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			ID:       job.ID,
			Kind:     job.Kind,
			Route:    job.Route,
			Template: job.Template,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	expectedOutput := joinOutputPath(baseDir, outputPath(job.Route))
	if s.cfg.Incremental && manifest.shouldSkipPage(job.ID, job.Metadata.Hash, expectedOutput) {
		outcome.skipped = true
		outcome.diagnostic.Skipped = true
		return outcome
	}

	start := time.Now()
	html, err := s.deps.Themes.Render(job.Template, job.Context)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render %q with template %q: %w", job.Route, job.Template, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		ID:       job.ID,
		Kind:     job.Kind,
		Route:    job.Route,
		Template: job.Template,
		HTML:     html,
		Metadata: job.Metadata,
		Duration: duration,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	pages []RenderedPage,
) error {
	if len(pages) == 0 {
		return nil
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for i := range pages {
		fullPath := joinOutputPath(baseDir, outputPath(pages[i].Route))
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		checksum := computeHashFromString(pages[i].HTML)
		pages[i].Output = fullPath
		pages[i].Checksum = checksum

		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    checksum,
			Metadata: map[string]string{
				"id":       pages[i].ID.String(),
				"kind":     string(pages[i].Kind),
				"route":    pages[i].Route,
				"template": pages[i].Template,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) persistAliases(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	buildCtx *BuildContext,
) (int, error) {
	if len(buildCtx.Aliases) == 0 {
		return 0, nil
	}
	dirCache := map[string]struct{}{}
	written := 0
	for _, alias := range sortedKeys(buildCtx.Aliases) {
		target := buildCtx.Aliases[alias]
		stub := aliasStub(absoluteURL(s.cfg.BaseURL, target))
		fullPath := joinOutputPath(baseDir, outputPath(alias))
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return written, err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(stub),
			Size:        int64(len(stub)),
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    computeHashFromString(stub),
			Metadata: map[string]string{
				"alias":  alias,
				"target": target,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	buildCtx *BuildContext,
) error {
	doc := buildSitemap(s.cfg.BaseURL, buildCtx.Jobs, buildCtx.GeneratedAt)
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(doc),
		Size:        int64(len(doc)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(doc),
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	generatedAt time.Time,
) error {
	doc := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(doc),
		Size:        int64(len(doc)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(doc),
		Metadata: map[string]string{
			"generated_at": generatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	rows, err := s.deps.Storage.Query(ctx, storage.OpRead, target)
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	if rows == nil {
		return newBuildManifest(), nil
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("generator: scan manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest, baseDir string) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	target := s.manifestTargetPath()
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": fmt.Sprintf("%d", manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(string(data)),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	})
}

func (s *service) removeOutput(ctx context.Context) error {
	if s.deps.Storage == nil {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if baseDir == "" {
		return errOutputDirMissing
	}
	if _, err := s.deps.Storage.Exec(ctx, storage.OpRemove, baseDir); err != nil {
		return fmt.Errorf("generator: clean output: %w", err)
	}
	return nil
}

func (s *service) effectiveWorkerCount(jobCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if jobCount > 0 && workers > jobCount {
		return jobCount
	}
	return workers
}

// BuildPage re-renders a single document, bypassing the manifest.
func (s *service) BuildPage(ctx context.Context, pageID uuid.UUID) error {
	_, err := s.Build(ctx, BuildOptions{PageIDs: []uuid.UUID{pageID}, Force: true})
	return err
}

// BuildAssets copies static and theme assets without rendering pages.
func (s *service) BuildAssets(ctx context.Context) error {
	_, err := s.Build(ctx, BuildOptions{AssetsOnly: true})
	return err
}

// BuildSitemap regenerates sitemap.xml from the current content model.
func (s *service) BuildSitemap(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	buildCtx, err := s.loadContext(ctx, BuildOptions{})
	if err != nil {
		return err
	}
	writer := newArtifactWriter(s.deps.Storage)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return s.writeSitemap(ctx, writer, baseDir, buildCtx)
}

// Clean removes the output directory.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.removeOutput(ctx)
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) BuildPage(context.Context, uuid.UUID) error {
	return ErrServiceDisabled
}

func (disabledService) BuildAssets(context.Context) error {
	return ErrServiceDisabled
}

func (disabledService) BuildSitemap(context.Context) error {
	return ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.Trim(base, "/"), rel)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
