// Package urls centralises permalink construction. Every route the site
// emits (post permalinks, section indexes, taxonomy pages, feeds) is built
// through named go-urlkit route templates so path conventions live in one
// place.
package urls

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	groupPosts      = "posts"
	groupPages      = "pages"
	groupTaxonomies = "taxonomies"
	groupFeeds      = "feeds"
)

// Resolver builds site-relative routes and absolute URLs from named route
// templates. The zero value is not usable; construct with NewResolver.
type Resolver struct {
	manager *urlkit.RouteManager
	baseURL string

	posts      *urlkit.Group
	pages      *urlkit.Group
	taxonomies *urlkit.Group
	feeds      *urlkit.Group
}

// NewResolver wires the route groups the blog publishes under. baseURL is
// only used when producing absolute URLs; routes themselves stay rooted
// ("/posts/my-slug/").
func NewResolver(baseURL string) (*Resolver, error) {
	manager := urlkit.NewRouteManager(routeConfig())

	r := &Resolver{
		manager: manager,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}

	var err error
	if r.posts, err = lookupGroup(manager, groupPosts); err != nil {
		return nil, err
	}
	if r.pages, err = lookupGroup(manager, groupPages); err != nil {
		return nil, err
	}
	if r.taxonomies, err = lookupGroup(manager, groupTaxonomies); err != nil {
		return nil, err
	}
	if r.feeds, err = lookupGroup(manager, groupFeeds); err != nil {
		return nil, err
	}

	return r, nil
}

func routeConfig() *urlkit.Config {
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name: groupPosts,
				Paths: map[string]string{
					"permalink": "/:section/:slug/",
					"section":   "/:section/",
				},
			},
			{
				Name: groupPages,
				Paths: map[string]string{
					"page":      "/:slug/",
					"home":      "/",
					"home_page": "/page/:number/",
				},
			},
			{
				Name: groupTaxonomies,
				Paths: map[string]string{
					"index": "/:taxonomy/",
					"term":  "/:taxonomy/:term/",
				},
			},
			{
				Name: groupFeeds,
				Paths: map[string]string{
					"site": "/:filename",
					"term": "/:taxonomy/:term/:filename",
				},
			},
		},
	}
}

// PostPermalink returns the route for a post within its section.
func (r *Resolver) PostPermalink(section, slug string) (string, error) {
	return r.build(r.posts, "permalink", map[string]any{
		"section": section,
		"slug":    slug,
	})
}

// SectionIndex returns the listing route for a content section.
func (r *Resolver) SectionIndex(section string) (string, error) {
	return r.build(r.posts, "section", map[string]any{
		"section": section,
	})
}

// PagePermalink returns the route for a standalone page.
func (r *Resolver) PagePermalink(slug string) (string, error) {
	return r.build(r.pages, "page", map[string]any{
		"slug": slug,
	})
}

// Home returns the site root route.
func (r *Resolver) Home() string {
	return "/"
}

// HomePage returns the route for a paginated home index (page 2 onward).
func (r *Resolver) HomePage(number int) (string, error) {
	if number <= 1 {
		return r.Home(), nil
	}
	return r.build(r.pages, "home_page", map[string]any{
		"number": fmt.Sprintf("%d", number),
	})
}

// TaxonomyIndex returns the route listing every term of a taxonomy.
func (r *Resolver) TaxonomyIndex(taxonomy string) (string, error) {
	return r.build(r.taxonomies, "index", map[string]any{
		"taxonomy": taxonomy,
	})
}

// TermPage returns the route listing posts under one taxonomy term.
func (r *Resolver) TermPage(taxonomy, term string) (string, error) {
	return r.build(r.taxonomies, "term", map[string]any{
		"taxonomy": taxonomy,
		"term":     term,
	})
}

// SiteFeed returns the route of a site-wide feed document.
func (r *Resolver) SiteFeed(filename string) (string, error) {
	return r.build(r.feeds, "site", map[string]any{
		"filename": filename,
	})
}

// TermFeed returns the route of a per-term feed document.
func (r *Resolver) TermFeed(taxonomy, term, filename string) (string, error) {
	return r.build(r.feeds, "term", map[string]any{
		"taxonomy": taxonomy,
		"term":     term,
		"filename": filename,
	})
}

// Absolute joins a rooted route with the configured base URL.
func (r *Resolver) Absolute(route string) string {
	if route == "" {
		route = "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.baseURL + route
}

// BaseURL reports the normalised base URL the resolver joins against.
func (r *Resolver) BaseURL() string {
	return r.baseURL
}

func (r *Resolver) build(group *urlkit.Group, route string, params map[string]any) (string, error) {
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	for key, val := range params {
		builder.WithParam(key, val)
	}
	url, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("urls: build route %q: %w", route, err)
	}
	return url, nil
}

// lookupGroup guards against urlkit's panic on unknown group names.
func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("urls: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("urls: route group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}
