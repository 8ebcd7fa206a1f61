package content

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Post is a dated entry published under a content section.
type Post struct {
	ID           uuid.UUID
	Title        string
	Slug         string
	Section      string
	Route        string
	Permalink    string
	Date         time.Time
	Updated      time.Time
	Draft        bool
	Author       string
	Summary      string
	Template     string
	Weight       int
	Aliases      []string
	Tags         []string
	Categories   []string
	Robots       string
	Extra        map[string]any
	WordCount    int
	ReadingTime  int
	Body         []byte
	HTML         []byte
	SourcePath   string
	Checksum     []byte
	LastModified time.Time

	// Prev points at the next older post in the same section, Next at the
	// next newer one.
	Prev *Post
	Next *Post
}

// Terms returns the post's raw front-matter terms for the named taxonomy.
// Tags and categories are dedicated fields; any other taxonomy resolves
// through the extra map.
func (p *Post) Terms(name string) []string {
	switch name {
	case "tags":
		return p.Tags
	case "categories":
		return p.Categories
	}
	if p.Extra == nil {
		return nil
	}
	switch v := p.Extra[name].(type) {
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

// Page is standalone content outside the dated post flow: root-level files
// such as about.md, plus section and home _index.md files.
type Page struct {
	ID           uuid.UUID
	Title        string
	Slug         string
	Section      string
	Route        string
	Permalink    string
	Date         time.Time
	Updated      time.Time
	Draft        bool
	Author       string
	Summary      string
	Template     string
	Weight       int
	Aliases      []string
	Robots       string
	Extra        map[string]any
	Body         []byte
	HTML         []byte
	SourcePath   string
	Checksum     []byte
	LastModified time.Time
}

// Section groups the published posts living under one top-level content
// directory.
type Section struct {
	Name  string
	Title string
	Route string
	// Posts are ordered newest first.
	Posts []*Post
	// Index carries the section's _index.md page when one exists. Its route
	// is the section listing route, so it is rendered as listing metadata
	// rather than as a standalone page.
	Index *Page
}

// Diagnostic reports a content file the load could not fully process.
type Diagnostic struct {
	File   string
	Detail string
}

// Model is the fully derived site content consumed by taxonomies, feeds and
// the generator.
type Model struct {
	// Posts holds every published post, newest first.
	Posts []*Post
	// Pages holds standalone pages (section _index files are attached to
	// their Section instead).
	Pages []*Page
	// Sections are ordered by name.
	Sections []*Section
	// Home carries content/_index.md when present; its front matter feeds
	// the home listing.
	Home *Page
	// Aliases maps each front-matter alias route to the route it redirects to.
	Aliases map[string]string
	// Diagnostics name the files that failed to parse.
	Diagnostics []Diagnostic
	// DraftCount reports how many drafts the load skipped.
	DraftCount int
}

// Section returns the named section, or nil.
func (m *Model) Section(name string) *Section {
	for _, section := range m.Sections {
		if section.Name == name {
			return section
		}
	}
	return nil
}

// Post returns the post with the given ID, or nil.
func (m *Model) Post(id uuid.UUID) *Post {
	for _, post := range m.Posts {
		if post.ID == id {
			return post
		}
	}
	return nil
}

// Routes returns every content route the model will render, sorted: the home
// listing, section listings, posts and standalone pages. Taxonomy and
// pagination routes are derived downstream.
func (m *Model) Routes() []string {
	routes := make([]string, 0, len(m.Posts)+len(m.Pages)+len(m.Sections)+1)
	routes = append(routes, "/")
	for _, section := range m.Sections {
		routes = append(routes, section.Route)
	}
	for _, post := range m.Posts {
		routes = append(routes, post.Route)
	}
	for _, page := range m.Pages {
		routes = append(routes, page.Route)
	}
	sort.Strings(routes)
	return routes
}
