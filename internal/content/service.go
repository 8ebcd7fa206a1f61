// Package content derives the publishable site model (posts, pages, sections)
// from parsed Markdown documents: route assignment, summaries, reading time,
// ordering and navigation.
package content

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Nathan-Furnal/blog/internal/identity"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/urls"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var (
	ErrSourceRequired   = errors.New("content: document source is required")
	ErrResolverRequired = errors.New("content: url resolver is required")
	ErrRouteCollision   = errors.New("content: route collision")
)

// DocumentSource supplies parsed Markdown documents, normally the markdown
// service rooted at the content directory.
type DocumentSource interface {
	Files(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]string, error)
	Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error)
}

// Config controls how documents become posts and pages.
type Config struct {
	// Author is the site-wide fallback for posts without an explicit author.
	Author string
	// ExcerptSeparator splits an explicit summary from the body.
	ExcerptSeparator string
	// BuildDrafts includes draft content instead of skipping it.
	BuildDrafts bool
}

// Service loads the content tree and assembles the site model.
type Service struct {
	cfg    Config
	source DocumentSource
	urls   *urls.Resolver
	logger interfaces.Logger
}

// NewService constructs a content service over the supplied document source.
func NewService(cfg Config, source DocumentSource, resolver *urls.Resolver, provider interfaces.LoggerProvider) (*Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}

	return &Service{
		cfg:    cfg,
		source: source,
		urls:   resolver,
		logger: logging.ContentLogger(provider),
	}, nil
}

// Load walks the content tree and derives the publishable model. Files that
// fail to parse become diagnostics instead of aborting the load; route
// collisions abort it.
func (s *Service) Load(ctx context.Context) (*Model, error) {
	files, err := s.source.Files(ctx, ".", interfaces.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("content: list files: %w", err)
	}

	model := &Model{Aliases: map[string]string{}}
	indexes := map[string]*Page{}

	for _, file := range files {
		doc, err := s.source.Load(ctx, file, interfaces.LoadOptions{})
		if err != nil {
			s.logger.Warn("skipping %s: %v", file, err)
			model.Diagnostics = append(model.Diagnostics, Diagnostic{File: file, Detail: err.Error()})
			continue
		}

		if doc.FrontMatter.Draft && !s.cfg.BuildDrafts {
			model.DraftCount++
			continue
		}

		if err := s.classify(model, indexes, doc); err != nil {
			return nil, err
		}
	}

	if err := s.assemble(model, indexes); err != nil {
		return nil, err
	}

	s.logger.Debug("content model loaded: %d posts, %d pages, %d sections, %d drafts skipped",
		len(model.Posts), len(model.Pages), len(model.Sections), model.DraftCount)

	return model, nil
}

func (s *Service) classify(model *Model, indexes map[string]*Page, doc *interfaces.Document) error {
	isIndex := path.Base(doc.FilePath) == "_index.md"

	switch {
	case isIndex && doc.Section == "":
		model.Home = s.buildPage(doc, s.urls.Home())
	case isIndex:
		if strings.Count(doc.FilePath, "/") > 1 {
			model.Diagnostics = append(model.Diagnostics, Diagnostic{
				File:   doc.FilePath,
				Detail: "_index.md below the section root is ignored",
			})
			return nil
		}
		route, err := s.urls.SectionIndex(doc.Section)
		if err != nil {
			return fmt.Errorf("content: section route for %s: %w", doc.FilePath, err)
		}
		page := s.buildPage(doc, route)
		if strings.TrimSpace(page.Title) == "" || page.Title == "_index" {
			page.Title = doc.Section
		}
		indexes[doc.Section] = page
	case doc.Section == "":
		slug := s.resolveSlug(doc)
		route, err := s.urls.PagePermalink(slug)
		if err != nil {
			return fmt.Errorf("content: page route for %s: %w", doc.FilePath, err)
		}
		model.Pages = append(model.Pages, s.buildPage(doc, route))
	default:
		post, err := s.buildPost(doc)
		if err != nil {
			return err
		}
		model.Posts = append(model.Posts, post)
	}

	return nil
}

func (s *Service) buildPost(doc *interfaces.Document) (*Post, error) {
	slug := s.resolveSlug(doc)
	route, err := s.urls.PostPermalink(doc.Section, slug)
	if err != nil {
		return nil, fmt.Errorf("content: post route for %s: %w", doc.FilePath, err)
	}

	fm := doc.FrontMatter
	words := CountWords(doc.Body)

	return &Post{
		ID:           identity.PostUUID(doc.FilePath),
		Title:        resolveTitle(doc),
		Slug:         slug,
		Section:      doc.Section,
		Route:        route,
		Permalink:    s.urls.Absolute(route),
		Date:         fm.Date,
		Updated:      fm.Updated,
		Draft:        fm.Draft,
		Author:       firstNonEmpty(fm.Author, s.cfg.Author),
		Summary:      s.summarize(fm, doc.Body),
		Template:     fm.Template,
		Weight:       fm.Weight,
		Aliases:      append([]string(nil), fm.Aliases...),
		Tags:         append([]string(nil), fm.Tags...),
		Categories:   append([]string(nil), fm.Categories...),
		Robots:       fm.Robots(),
		Extra:        fm.Extra,
		WordCount:    words,
		ReadingTime:  EstimateReadingTime(words),
		Body:         doc.Body,
		HTML:         doc.BodyHTML,
		SourcePath:   doc.FilePath,
		Checksum:     doc.Checksum,
		LastModified: doc.LastModified,
	}, nil
}

func (s *Service) buildPage(doc *interfaces.Document, route string) *Page {
	fm := doc.FrontMatter

	return &Page{
		ID:           identity.PostUUID(doc.FilePath),
		Title:        resolveTitle(doc),
		Slug:         s.resolveSlug(doc),
		Section:      doc.Section,
		Route:        route,
		Permalink:    s.urls.Absolute(route),
		Date:         fm.Date,
		Updated:      fm.Updated,
		Draft:        fm.Draft,
		Author:       firstNonEmpty(fm.Author, s.cfg.Author),
		Summary:      s.summarize(fm, doc.Body),
		Template:     fm.Template,
		Weight:       fm.Weight,
		Aliases:      append([]string(nil), fm.Aliases...),
		Robots:       fm.Robots(),
		Extra:        fm.Extra,
		Body:         doc.Body,
		HTML:         doc.BodyHTML,
		SourcePath:   doc.FilePath,
		Checksum:     doc.Checksum,
		LastModified: doc.LastModified,
	}
}

func (s *Service) summarize(fm interfaces.FrontMatter, body []byte) string {
	if desc := strings.TrimSpace(fm.Description); desc != "" {
		return desc
	}
	return Summarize(body, s.cfg.ExcerptSeparator)
}

func (s *Service) resolveSlug(doc *interfaces.Document) string {
	if explicit := strings.TrimSpace(doc.FrontMatter.Slug); explicit != "" {
		return NormalizeSlug(explicit)
	}
	if title := strings.TrimSpace(doc.FrontMatter.Title); title != "" {
		return NormalizeSlug(title)
	}
	base := strings.TrimSuffix(path.Base(doc.FilePath), path.Ext(doc.FilePath))
	return NormalizeSlug(base)
}

func resolveTitle(doc *interfaces.Document) string {
	if title := strings.TrimSpace(doc.FrontMatter.Title); title != "" {
		return title
	}
	base := strings.TrimSuffix(path.Base(doc.FilePath), path.Ext(doc.FilePath))
	return strings.ReplaceAll(base, "-", " ")
}

func (s *Service) assemble(model *Model, indexes map[string]*Page) error {
	sortPosts(model.Posts)

	bySection := map[string][]*Post{}
	for _, post := range model.Posts {
		bySection[post.Section] = append(bySection[post.Section], post)
	}

	names := make([]string, 0, len(bySection))
	for name := range bySection {
		names = append(names, name)
	}
	for name := range indexes {
		if _, ok := bySection[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		route, err := s.urls.SectionIndex(name)
		if err != nil {
			return fmt.Errorf("content: section route for %s: %w", name, err)
		}

		section := &Section{
			Name:  name,
			Title: name,
			Route: route,
			Posts: bySection[name],
			Index: indexes[name],
		}
		if section.Index != nil && strings.TrimSpace(section.Index.Title) != "" {
			section.Title = section.Index.Title
		}
		linkNeighbours(section.Posts)

		model.Sections = append(model.Sections, section)
	}

	sort.SliceStable(model.Pages, func(i, j int) bool {
		return model.Pages[i].Route < model.Pages[j].Route
	})

	return s.checkRoutes(model)
}

// sortPosts orders newest first. Undated posts sort last; ties break on slug
// so the order stays deterministic.
func sortPosts(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.Date.IsZero() && b.Date.IsZero():
			return a.Slug < b.Slug
		case a.Date.IsZero():
			return false
		case b.Date.IsZero():
			return true
		case !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		default:
			return a.Slug < b.Slug
		}
	})
}

func linkNeighbours(posts []*Post) {
	for i, post := range posts {
		if i > 0 {
			post.Next = posts[i-1]
		}
		if i+1 < len(posts) {
			post.Prev = posts[i+1]
		}
	}
}

func (s *Service) checkRoutes(model *Model) error {
	claimed := map[string]string{
		s.urls.Home(): "the home index",
	}
	for _, section := range model.Sections {
		claimed[section.Route] = "section " + section.Name
	}

	for _, post := range model.Posts {
		if err := claimRoute(claimed, post.Route, post.SourcePath); err != nil {
			return err
		}
	}
	for _, page := range model.Pages {
		if err := claimRoute(claimed, page.Route, page.SourcePath); err != nil {
			return err
		}
	}

	for _, post := range model.Posts {
		s.collectAliases(model, claimed, post.Aliases, post.Route, post.SourcePath)
	}
	for _, page := range model.Pages {
		s.collectAliases(model, claimed, page.Aliases, page.Route, page.SourcePath)
	}

	return nil
}

func claimRoute(claimed map[string]string, route, source string) error {
	if existing, ok := claimed[route]; ok {
		return fmt.Errorf("%w: %s claimed by both %s and %s", ErrRouteCollision, route, existing, source)
	}
	claimed[route] = source
	return nil
}

// collectAliases records alias redirects. An alias that shadows a rendered
// route or another alias is dropped with a diagnostic rather than failing the
// build.
func (s *Service) collectAliases(model *Model, claimed map[string]string, aliases []string, target, source string) {
	for _, alias := range aliases {
		route := normalizeAliasRoute(alias)
		if route == "" {
			continue
		}
		if existing, ok := claimed[route]; ok {
			s.logger.Warn("alias %s from %s shadows %s, dropping", route, source, existing)
			model.Diagnostics = append(model.Diagnostics, Diagnostic{
				File:   source,
				Detail: fmt.Sprintf("alias %s shadows an existing route", route),
			})
			continue
		}
		if existing, ok := model.Aliases[route]; ok && existing != target {
			s.logger.Warn("alias %s from %s already redirects to %s, dropping", route, source, existing)
			model.Diagnostics = append(model.Diagnostics, Diagnostic{
				File:   source,
				Detail: fmt.Sprintf("alias %s already claimed", route),
			})
			continue
		}
		model.Aliases[route] = target
	}
}

func normalizeAliasRoute(alias string) string {
	trimmed := strings.TrimSpace(alias)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
