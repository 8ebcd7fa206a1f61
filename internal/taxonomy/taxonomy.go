// Package taxonomy derives config-driven groupings of posts (tags,
// categories, any custom front-matter list) with slugged terms, counts and
// stable ordering.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/identity"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/internal/urls"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	ErrResolverRequired = errors.New("taxonomy: url resolver is required")
	ErrNameRequired     = errors.New("taxonomy: taxonomy name is required")
)

// Definition names one configured taxonomy.
type Definition struct {
	Name string
	// Feed marks taxonomies whose terms also emit per-term feeds.
	Feed bool
	// Template overrides the term template name.
	Template string
}

// Term groups the posts sharing one front-matter term.
type Term struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Route     string
	Permalink string
	// Posts are ordered newest first.
	Posts []*content.Post
}

// Count reports how many posts carry the term.
func (t *Term) Count() int {
	return len(t.Posts)
}

// Taxonomy is one derived grouping with its terms in alphabetical slug order.
type Taxonomy struct {
	Name      string
	Feed      bool
	Template  string
	Route     string
	Permalink string
	Terms     []*Term
}

// Term returns the term with the given slug, or nil.
func (x *Taxonomy) Term(slug string) *Term {
	for _, term := range x.Terms {
		if term.Slug == slug {
			return term
		}
	}
	return nil
}

// Index holds every configured taxonomy in configuration order.
type Index struct {
	Taxonomies []*Taxonomy
}

// Taxonomy returns the named taxonomy, or nil.
func (i *Index) Taxonomy(name string) *Taxonomy {
	for _, tax := range i.Taxonomies {
		if tax.Name == name {
			return tax
		}
	}
	return nil
}

// Routes returns every taxonomy index and term route, sorted.
func (i *Index) Routes() []string {
	var routes []string
	for _, tax := range i.Taxonomies {
		routes = append(routes, tax.Route)
		for _, term := range tax.Terms {
			routes = append(routes, term.Route)
		}
	}
	sort.Strings(routes)
	return routes
}

// Service derives taxonomy indexes from the content model.
type Service struct {
	defs   []Definition
	urls   *urls.Resolver
	logger interfaces.Logger
}

// NewService constructs a taxonomy service for the configured definitions.
func NewService(defs []Definition, resolver *urls.Resolver, provider interfaces.LoggerProvider) (*Service, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, ErrNameRequired
		}
	}

	return &Service{
		defs:   defs,
		urls:   resolver,
		logger: logging.TaxonomyLogger(provider),
	}, nil
}

// Build walks the published posts and assembles every configured taxonomy.
// Empty terms are dropped; spellings that slug identically merge under the
// first spelling seen.
func (s *Service) Build(model *content.Model) (*Index, error) {
	index := &Index{}

	for _, def := range s.defs {
		tax, err := s.buildTaxonomy(def, model.Posts)
		if err != nil {
			return nil, err
		}
		index.Taxonomies = append(index.Taxonomies, tax)
	}

	return index, nil
}

func (s *Service) buildTaxonomy(def Definition, posts []*content.Post) (*Taxonomy, error) {
	route, err := s.urls.TaxonomyIndex(def.Name)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: index route for %s: %w", def.Name, err)
	}

	tax := &Taxonomy{
		Name:      def.Name,
		Feed:      def.Feed,
		Template:  def.Template,
		Route:     route,
		Permalink: s.urls.Absolute(route),
	}

	terms := map[string]*Term{}

	for _, post := range posts {
		seen := map[string]struct{}{}
		for _, raw := range post.Terms(def.Name) {
			slug := content.NormalizeSlug(raw)
			if slug == "" {
				continue
			}
			if _, dup := seen[slug]; dup {
				continue
			}
			seen[slug] = struct{}{}

			term, ok := terms[slug]
			if !ok {
				termRoute, err := s.urls.TermPage(def.Name, slug)
				if err != nil {
					return nil, fmt.Errorf("taxonomy: term route for %s/%s: %w", def.Name, slug, err)
				}
				term = &Term{
					ID:        identity.TermUUID(def.Name, slug),
					Name:      raw,
					Slug:      slug,
					Route:     termRoute,
					Permalink: s.urls.Absolute(termRoute),
				}
				terms[slug] = term
			}
			term.Posts = append(term.Posts, post)
		}
	}

	tax.Terms = make([]*Term, 0, len(terms))
	for _, term := range terms {
		tax.Terms = append(tax.Terms, term)
	}
	sort.Slice(tax.Terms, func(i, j int) bool {
		return tax.Terms[i].Slug < tax.Terms[j].Slug
	})

	s.logger.Debug("taxonomy %s: %d terms", def.Name, len(tax.Terms))

	return tax, nil
}
