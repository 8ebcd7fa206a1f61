package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/identity"
	"github.com/Nathan-Furnal/blog/internal/taxonomy"
)

const defaultPageSize = 10

type jobKind string

const (
	kindPost     jobKind = "post"
	kindPage     jobKind = "page"
	kindHome     jobKind = "home"
	kindSection  jobKind = "section"
	kindTaxonomy jobKind = "taxonomy"
	kindTerm     jobKind = "term"
)

// BuildContext carries everything one build run renders from.
type BuildContext struct {
	GeneratedAt time.Time
	Site        SiteContext
	Model       *content.Model
	Taxonomies  *taxonomy.Index
	Jobs        []*pageJob
	Aliases     map[string]string
	Options     BuildOptions
}

// pageJob is one document to render: resolved template, stable identity and
// the dependency hash that drives incremental skips.
type pageJob struct {
	ID       uuid.UUID
	Kind     jobKind
	Route    string
	Template string
	Robots   string
	Metadata DependencyMetadata
	Context  TemplateContext
}

// DependencyMetadata tracks hashes and timestamps for incremental builds.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

// TemplateContext is the root object handed to theme templates. Fields not
// relevant to the current page kind are nil.
type TemplateContext struct {
	Site       SiteContext
	Title      string
	Page       *PageContext
	Posts      []*PageContext
	Section    *SectionContext
	Taxonomy   *TaxonomyContext
	Term       *TermContext
	Pagination *Pagination
	Build      BuildMetadata
}

// SiteContext carries site-wide values into every template execution.
type SiteContext struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Author      string
	Sections    []SectionLink
	Taxonomies  []TaxonomyLink
	FeedURL     string
	AtomURL     string
}

// SectionLink is a navigation entry for one content section.
type SectionLink struct {
	Name  string
	Title string
	URL   string
	Count int
}

// TaxonomyLink is a navigation entry for one taxonomy index.
type TaxonomyLink struct {
	Name  string
	URL   string
	Terms int
}

// PageContext is one renderable document as templates see it.
type PageContext struct {
	Title       string
	URL         string
	Permalink   string
	Section     string
	Date        time.Time
	Updated     time.Time
	Author      string
	Summary     string
	Content     template.HTML
	WordCount   int
	ReadingTime int
	Draft       bool
	Robots      string
	Tags        []string
	Categories  []string
	Extra       map[string]any
	Prev        *PageLink
	Next        *PageLink
}

// PageLink references a neighbouring post.
type PageLink struct {
	Title string
	URL   string
}

// SectionContext describes a section listing page.
type SectionContext struct {
	Name    string
	Title   string
	URL     string
	Count   int
	Summary string
	Content template.HTML
}

// TaxonomyContext describes a taxonomy index page.
type TaxonomyContext struct {
	Name  string
	URL   string
	Terms []*TermContext
}

// TermContext describes one taxonomy term. Posts is populated on term pages
// and left nil on taxonomy index pages.
type TermContext struct {
	Taxonomy string
	Name     string
	Slug     string
	URL      string
	FeedURL  string
	Count    int
	Posts    []*PageContext
}

// Pagination describes the position of a paginated listing page.
type Pagination struct {
	Page       int
	TotalPages int
	PerPage    int
	Total      int
	PrevURL    string
	NextURL    string
}

// BuildMetadata exposes build-time information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// buildScope filters jobs for scoped builds.
type buildScope struct {
	sections map[string]struct{}
	ids      map[uuid.UUID]struct{}
}

func newBuildScope(opts BuildOptions) buildScope {
	scope := buildScope{}
	if len(opts.Sections) > 0 {
		scope.sections = make(map[string]struct{}, len(opts.Sections))
		for _, section := range opts.Sections {
			scope.sections[strings.ToLower(strings.TrimSpace(section))] = struct{}{}
		}
	}
	if len(opts.PageIDs) > 0 {
		scope.ids = make(map[uuid.UUID]struct{}, len(opts.PageIDs))
		for _, id := range opts.PageIDs {
			scope.ids[id] = struct{}{}
		}
	}
	return scope
}

func (s buildScope) full() bool {
	return s.sections == nil && s.ids == nil
}

func (s buildScope) includes(id uuid.UUID, section string) bool {
	if s.full() {
		return true
	}
	if s.ids != nil {
		if _, ok := s.ids[id]; ok {
			return true
		}
	}
	if s.sections != nil {
		if _, ok := s.sections[strings.ToLower(section)]; ok {
			return true
		}
	}
	return false
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	model, err := s.deps.Content.Load(ctx)
	if err != nil {
		return nil, err
	}

	var index *taxonomy.Index
	if s.deps.Taxonomy != nil {
		index, err = s.deps.Taxonomy.Build(model)
		if err != nil {
			return nil, err
		}
	}

	site, err := s.siteContext(model, index)
	if err != nil {
		return nil, err
	}

	buildCtx := &BuildContext{
		GeneratedAt: s.now().UTC(),
		Site:        site,
		Model:       model,
		Taxonomies:  index,
		Aliases:     model.Aliases,
		Options:     opts,
	}

	build := BuildMetadata{GeneratedAt: buildCtx.GeneratedAt, Options: opts}
	scope := newBuildScope(opts)

	if scope.full() {
		homeJobs, err := s.homeJobs(model, site, build)
		if err != nil {
			return nil, err
		}
		buildCtx.Jobs = append(buildCtx.Jobs, homeJobs...)
	}

	for _, post := range model.Posts {
		if !scope.includes(post.ID, post.Section) {
			continue
		}
		buildCtx.Jobs = append(buildCtx.Jobs, s.postJob(post, site, build))
	}

	for _, page := range model.Pages {
		if !scope.includes(page.ID, page.Section) {
			continue
		}
		buildCtx.Jobs = append(buildCtx.Jobs, s.pageJob(page, site, build))
	}

	if scope.full() {
		for _, section := range model.Sections {
			buildCtx.Jobs = append(buildCtx.Jobs, s.sectionJob(section, site, build))
		}
		if index != nil {
			for _, tax := range index.Taxonomies {
				buildCtx.Jobs = append(buildCtx.Jobs, s.taxonomyJob(tax, site, build))
				for _, term := range tax.Terms {
					buildCtx.Jobs = append(buildCtx.Jobs, s.termJob(tax, term, site, build))
				}
			}
		}
	}

	if err := s.checkRoutePlan(buildCtx); err != nil {
		return nil, err
	}

	return buildCtx, nil
}

// checkRoutePlan rejects plans where two jobs claim the same route. Content
// routes are checked against each other while loading, but taxonomy indexes,
// term pages and the paginated home only get routes here, so a page slugged
// like a taxonomy is caught at this point. Aliases shadowing a planned route
// are dropped, matching the loader's best-effort alias policy.
func (s *service) checkRoutePlan(buildCtx *BuildContext) error {
	claimed := make(map[string]jobKind, len(buildCtx.Jobs))
	for _, job := range buildCtx.Jobs {
		if prior, ok := claimed[job.Route]; ok {
			return fmt.Errorf("%w: %s planned as both %s and %s", ErrRouteConflict, job.Route, prior, job.Kind)
		}
		claimed[job.Route] = job.Kind
	}

	shadowed := false
	for alias := range buildCtx.Aliases {
		if _, ok := claimed[alias]; ok {
			shadowed = true
			break
		}
	}
	if shadowed {
		filtered := make(map[string]string, len(buildCtx.Aliases))
		for route, target := range buildCtx.Aliases {
			if kind, ok := claimed[route]; ok {
				s.deps.Logger.Warn("alias dropped", "alias", route, "shadows", string(kind))
				continue
			}
			filtered[route] = target
		}
		buildCtx.Aliases = filtered
	}
	return nil
}

func (s *service) siteContext(model *content.Model, index *taxonomy.Index) (SiteContext, error) {
	site := SiteContext{
		Title:       strings.TrimSpace(s.cfg.SiteTitle),
		Description: strings.TrimSpace(s.cfg.SiteDescription),
		BaseURL:     s.deps.URLs.BaseURL(),
		Language:    strings.TrimSpace(s.cfg.Language),
		Author:      strings.TrimSpace(s.cfg.Author),
	}
	if site.Title == "" {
		site.Title = site.BaseURL
	}
	if site.Language == "" {
		site.Language = "en"
	}

	for _, section := range model.Sections {
		site.Sections = append(site.Sections, SectionLink{
			Name:  section.Name,
			Title: section.Title,
			URL:   section.Route,
			Count: len(section.Posts),
		})
	}
	if index != nil {
		for _, tax := range index.Taxonomies {
			site.Taxonomies = append(site.Taxonomies, TaxonomyLink{
				Name:  tax.Name,
				URL:   tax.Route,
				Terms: len(tax.Terms),
			})
		}
	}

	if s.cfg.FeedsEnabled {
		rss, err := s.deps.URLs.SiteFeed(s.cfg.RSSFilename)
		if err != nil {
			return site, fmt.Errorf("generator: resolve feed route: %w", err)
		}
		atom, err := s.deps.URLs.SiteFeed(s.cfg.AtomFilename)
		if err != nil {
			return site, fmt.Errorf("generator: resolve feed route: %w", err)
		}
		site.FeedURL = s.deps.URLs.Absolute(rss)
		site.AtomURL = s.deps.URLs.Absolute(atom)
	}
	return site, nil
}

// homeJobs paginates the global post list into the home index and its
// /page/N/ continuations.
func (s *service) homeJobs(model *content.Model, site SiteContext, build BuildMetadata) ([]*pageJob, error) {
	perPage := s.cfg.PageSize
	total := len(model.Posts)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	var home *PageContext
	if model.Home != nil {
		home = pageContext(model.Home)
	}

	jobs := make([]*pageJob, 0, totalPages)
	for number := 1; number <= totalPages; number++ {
		route, err := s.deps.URLs.HomePage(number)
		if err != nil {
			return nil, fmt.Errorf("generator: resolve home page %d: %w", number, err)
		}

		lo := (number - 1) * perPage
		hi := lo + perPage
		if hi > total {
			hi = total
		}
		window := model.Posts[lo:hi]

		pagination := &Pagination{
			Page:       number,
			TotalPages: totalPages,
			PerPage:    perPage,
			Total:      total,
		}
		if number > 1 {
			prev, err := s.deps.URLs.HomePage(number - 1)
			if err != nil {
				return nil, err
			}
			pagination.PrevURL = prev
		}
		if number < totalPages {
			next, err := s.deps.URLs.HomePage(number + 1)
			if err != nil {
				return nil, err
			}
			pagination.NextURL = next
		}

		title := site.Title
		if home != nil && home.Title != "" {
			title = home.Title
		}
		if number > 1 {
			title = fmt.Sprintf("%s (page %d)", title, number)
		}

		ctx := TemplateContext{
			Site:       site,
			Title:      title,
			Page:       home,
			Posts:      postContexts(window),
			Pagination: pagination,
			Build:      build,
		}

		sources := map[string]string{
			"items":    hashPostWindow(window),
			"page":     strconv.Itoa(number),
			"of":       strconv.Itoa(totalPages),
			"template": "index.html",
			"theme":    s.deps.Themes.Name(),
		}
		if model.Home != nil {
			sources["home"] = contentStamp(model.Home.SourcePath, model.Home.Checksum, model.Home.LastModified)
		}

		jobs = append(jobs, &pageJob{
			ID:       identity.RouteUUID(route),
			Kind:     kindHome,
			Route:    route,
			Template: "index.html",
			Metadata: dependencyMetadata(sources, lastModifiedOf(window, build.GeneratedAt)),
			Context:  ctx,
		})
	}
	return jobs, nil
}

func (s *service) postJob(post *content.Post, site SiteContext, build BuildMetadata) *pageJob {
	page := postContext(post)
	tmpl := s.resolveTemplate(post.Template, "post.html", "page.html")

	sources := map[string]string{
		"source":   contentStamp(post.SourcePath, post.Checksum, post.LastModified),
		"template": tmpl,
		"theme":    s.deps.Themes.Name(),
	}
	if post.Prev != nil {
		sources["prev"] = post.Prev.Route + "|" + post.Prev.Title
	}
	if post.Next != nil {
		sources["next"] = post.Next.Route + "|" + post.Next.Title
	}

	return &pageJob{
		ID:       post.ID,
		Kind:     kindPost,
		Route:    post.Route,
		Template: tmpl,
		Robots:   post.Robots,
		Metadata: dependencyMetadata(sources, postLastModified(post, build.GeneratedAt)),
		Context: TemplateContext{
			Site:  site,
			Title: post.Title,
			Page:  page,
			Build: build,
		},
	}
}

func (s *service) pageJob(page *content.Page, site SiteContext, build BuildMetadata) *pageJob {
	ctx := pageContext(page)
	tmpl := s.resolveTemplate(page.Template, "page.html")

	sources := map[string]string{
		"source":   contentStamp(page.SourcePath, page.Checksum, page.LastModified),
		"template": tmpl,
		"theme":    s.deps.Themes.Name(),
	}

	lastMod := page.Updated
	if lastMod.IsZero() {
		lastMod = page.LastModified
	}
	if lastMod.IsZero() {
		lastMod = build.GeneratedAt
	}

	return &pageJob{
		ID:       page.ID,
		Kind:     kindPage,
		Route:    page.Route,
		Template: tmpl,
		Robots:   page.Robots,
		Metadata: dependencyMetadata(sources, lastMod),
		Context: TemplateContext{
			Site:  site,
			Title: page.Title,
			Page:  ctx,
			Build: build,
		},
	}
}

func (s *service) sectionJob(section *content.Section, site SiteContext, build BuildMetadata) *pageJob {
	tmpl := s.resolveTemplate("", "section.html", "index.html")

	sectionCtx := &SectionContext{
		Name:  section.Name,
		Title: section.Title,
		URL:   section.Route,
		Count: len(section.Posts),
	}
	sources := map[string]string{
		"items":    hashPostWindow(section.Posts),
		"template": tmpl,
		"theme":    s.deps.Themes.Name(),
	}
	if section.Index != nil {
		sectionCtx.Summary = section.Index.Summary
		sectionCtx.Content = template.HTML(section.Index.HTML)
		sources["index"] = contentStamp(section.Index.SourcePath, section.Index.Checksum, section.Index.LastModified)
	}

	return &pageJob{
		ID:       identity.SectionUUID(section.Name),
		Kind:     kindSection,
		Route:    section.Route,
		Template: tmpl,
		Metadata: dependencyMetadata(sources, lastModifiedOf(section.Posts, build.GeneratedAt)),
		Context: TemplateContext{
			Site:    site,
			Title:   section.Title,
			Posts:   postContexts(section.Posts),
			Section: sectionCtx,
			Build:   build,
		},
	}
}

func (s *service) taxonomyJob(tax *taxonomy.Taxonomy, site SiteContext, build BuildMetadata) *pageJob {
	terms := make([]*TermContext, 0, len(tax.Terms))
	stamps := make([]string, 0, len(tax.Terms))
	for _, term := range tax.Terms {
		terms = append(terms, s.termContext(tax, term, false))
		stamps = append(stamps, term.Slug+"|"+strconv.Itoa(term.Count()))
	}

	sources := map[string]string{
		"terms":    hashStrings(stamps),
		"template": "taxonomy.html",
		"theme":    s.deps.Themes.Name(),
	}

	return &pageJob{
		ID:       identity.RouteUUID(tax.Route),
		Kind:     kindTaxonomy,
		Route:    tax.Route,
		Template: "taxonomy.html",
		Metadata: dependencyMetadata(sources, build.GeneratedAt),
		Context: TemplateContext{
			Site:  site,
			Title: tax.Name,
			Taxonomy: &TaxonomyContext{
				Name:  tax.Name,
				URL:   tax.Route,
				Terms: terms,
			},
			Build: build,
		},
	}
}

func (s *service) termJob(tax *taxonomy.Taxonomy, term *taxonomy.Term, site SiteContext, build BuildMetadata) *pageJob {
	tmpl := s.resolveTemplate(tax.Template, "term.html")

	sources := map[string]string{
		"items":    hashPostWindow(term.Posts),
		"term":     term.Slug + "|" + term.Name,
		"template": tmpl,
		"theme":    s.deps.Themes.Name(),
	}

	return &pageJob{
		ID:       term.ID,
		Kind:     kindTerm,
		Route:    term.Route,
		Template: tmpl,
		Metadata: dependencyMetadata(sources, lastModifiedOf(term.Posts, build.GeneratedAt)),
		Context: TemplateContext{
			Site:  site,
			Title: term.Name,
			Posts: postContexts(term.Posts),
			Term:  s.termContext(tax, term, true),
			Build: build,
		},
	}
}

func (s *service) termContext(tax *taxonomy.Taxonomy, term *taxonomy.Term, withPosts bool) *TermContext {
	ctx := &TermContext{
		Taxonomy: tax.Name,
		Name:     term.Name,
		Slug:     term.Slug,
		URL:      term.Route,
		Count:    term.Count(),
	}
	if tax.Feed {
		if feed, err := s.deps.URLs.TermFeed(tax.Name, term.Slug, s.cfg.RSSFilename); err == nil {
			ctx.FeedURL = feed
		}
	}
	if withPosts {
		ctx.Posts = postContexts(term.Posts)
	}
	return ctx
}

// resolveTemplate returns the first candidate the theme ships. When none
// exists the first candidate is returned so the render error names it.
func (s *service) resolveTemplate(explicit string, fallbacks ...string) string {
	candidates := make([]string, 0, len(fallbacks)+1)
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		candidates = append(candidates, trimmed)
	}
	candidates = append(candidates, fallbacks...)

	for _, candidate := range candidates {
		if s.deps.Themes.HasTemplate(candidate) {
			return candidate
		}
	}
	return candidates[0]
}

func postContext(post *content.Post) *PageContext {
	ctx := &PageContext{
		Title:       post.Title,
		URL:         post.Route,
		Permalink:   post.Permalink,
		Section:     post.Section,
		Date:        post.Date,
		Updated:     post.Updated,
		Author:      post.Author,
		Summary:     post.Summary,
		Content:     template.HTML(post.HTML),
		WordCount:   post.WordCount,
		ReadingTime: post.ReadingTime,
		Draft:       post.Draft,
		Robots:      post.Robots,
		Tags:        post.Tags,
		Categories:  post.Categories,
		Extra:       post.Extra,
	}
	if post.Prev != nil {
		ctx.Prev = &PageLink{Title: post.Prev.Title, URL: post.Prev.Route}
	}
	if post.Next != nil {
		ctx.Next = &PageLink{Title: post.Next.Title, URL: post.Next.Route}
	}
	return ctx
}

func pageContext(page *content.Page) *PageContext {
	return &PageContext{
		Title:     page.Title,
		URL:       page.Route,
		Permalink: page.Permalink,
		Section:   page.Section,
		Date:      page.Date,
		Updated:   page.Updated,
		Author:    page.Author,
		Summary:   page.Summary,
		Content:   template.HTML(page.HTML),
		Draft:     page.Draft,
		Robots:    page.Robots,
		Extra:     page.Extra,
	}
}

func postContexts(posts []*content.Post) []*PageContext {
	if len(posts) == 0 {
		return nil
	}
	contexts := make([]*PageContext, 0, len(posts))
	for _, post := range posts {
		contexts = append(contexts, postContext(post))
	}
	return contexts
}

// postLastModified picks the timestamp surfaced in sitemaps: the explicit
// update wins over the publish date, the file mtime covers undated posts.
func postLastModified(post *content.Post, fallback time.Time) time.Time {
	switch {
	case !post.Updated.IsZero():
		return post.Updated
	case !post.Date.IsZero():
		return post.Date
	case !post.LastModified.IsZero():
		return post.LastModified
	default:
		return fallback
	}
}

func lastModifiedOf(posts []*content.Post, fallback time.Time) time.Time {
	var latest time.Time
	for _, post := range posts {
		if stamp := postLastModified(post, time.Time{}); stamp.After(latest) {
			latest = stamp
		}
	}
	if latest.IsZero() {
		return fallback
	}
	return latest
}

func contentStamp(sourcePath string, checksum []byte, lastModified time.Time) string {
	return strings.Join([]string{
		sourcePath,
		hex.EncodeToString(checksum),
		lastModified.UTC().Format(time.RFC3339Nano),
	}, "|")
}

func hashPostWindow(posts []*content.Post) string {
	if len(posts) == 0 {
		return ""
	}
	stamps := make([]string, 0, len(posts))
	for _, post := range posts {
		stamps = append(stamps, contentStamp(post.SourcePath, post.Checksum, post.LastModified))
	}
	return hashStrings(stamps)
}

func hashStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	hasher := sha256.New()
	for _, value := range values {
		hasher.Write([]byte(value))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte{0})
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{1})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func dependencyMetadata(sources map[string]string, lastModified time.Time) DependencyMetadata {
	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: lastModified,
	}
}
