// Package linkcheck verifies that internal link and image destinations in
// content bodies resolve to a rendered route, an alias, or an emitted asset.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var ErrModelRequired = errors.New("linkcheck: content model is required")

// Violation reports one destination that does not resolve.
type Violation struct {
	File        string
	Destination string
	Reason      string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.File, v.Destination, v.Reason)
}

// Config controls which destinations count as internal.
type Config struct {
	// BaseURL marks absolute destinations on the same host as internal so
	// they are checked like root-relative paths.
	BaseURL string
}

// Service walks content bodies with the Markdown parser and checks every
// collected destination against the set of paths the site will publish.
type Service struct {
	cfg    Config
	host   string
	engine goldmark.Markdown
	logger interfaces.Logger
}

// NewService constructs a link checker. The parser mirrors the extensions the
// renderer applies so footnote and autolink destinations are seen the same
// way the built site emits them.
func NewService(cfg Config, provider interfaces.LoggerProvider) *Service {
	host := ""
	if parsed, err := url.Parse(strings.TrimSpace(cfg.BaseURL)); err == nil {
		host = strings.ToLower(parsed.Host)
	}

	return &Service{
		cfg:  cfg,
		host: host,
		engine: goldmark.New(goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
		)),
		logger: logging.LinkCheckLogger(provider),
	}
}

// Check walks every post, page and listing body in the model and returns the
// unresolved internal destinations, sorted by file then destination. extra
// lists additional resolvable paths the model does not know about, such as
// taxonomy routes and copied asset paths.
func (s *Service) Check(ctx context.Context, model *content.Model, extra ...string) ([]Violation, error) {
	if model == nil {
		return nil, ErrModelRequired
	}

	targets := s.targets(model, extra)

	var violations []Violation
	walk := func(file, route string, body []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		found, err := s.checkDocument(file, route, body, targets)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	}

	for _, post := range model.Posts {
		if err := walk(post.SourcePath, post.Route, post.Body); err != nil {
			return nil, err
		}
	}
	for _, page := range model.Pages {
		if err := walk(page.SourcePath, page.Route, page.Body); err != nil {
			return nil, err
		}
	}
	for _, section := range model.Sections {
		if section.Index == nil {
			continue
		}
		if err := walk(section.Index.SourcePath, section.Index.Route, section.Index.Body); err != nil {
			return nil, err
		}
	}
	if model.Home != nil {
		if err := walk(model.Home.SourcePath, model.Home.Route, model.Home.Body); err != nil {
			return nil, err
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Destination < violations[j].Destination
	})

	if len(violations) > 0 {
		s.logger.Warn("link check found %d unresolved destinations", len(violations))
	} else {
		s.logger.Debug("link check passed: %d targets known", len(targets))
	}

	return violations, nil
}

// targets collects every path a destination may legitimately point at:
// rendered routes, alias redirects, and caller-supplied extras.
func (s *Service) targets(model *content.Model, extra []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, route := range model.Routes() {
		set[route] = struct{}{}
	}
	for alias := range model.Aliases {
		set[alias] = struct{}{}
	}
	for _, path := range extra {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		set[path] = struct{}{}
	}
	return set
}

func (s *Service) checkDocument(file, route string, body []byte, targets map[string]struct{}) ([]Violation, error) {
	refs, err := s.destinations(body)
	if err != nil {
		return nil, fmt.Errorf("linkcheck: walk %s: %w", file, err)
	}

	var out []Violation
	seen := map[string]struct{}{}
	for _, dest := range refs {
		reason := s.resolve(dest, route, targets)
		if reason == "" {
			continue
		}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}
		out = append(out, Violation{File: file, Destination: dest, Reason: reason})
	}
	return out, nil
}

// destinations parses the Markdown body and collects link, image and autolink
// destinations in document order.
func (s *Service) destinations(body []byte) ([]string, error) {
	root := s.engine.Parser().Parse(text.NewReader(body))

	var refs []string
	err := ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch typed := node.(type) {
		case *ast.Link:
			refs = append(refs, string(typed.Destination))
		case *ast.Image:
			refs = append(refs, string(typed.Destination))
		case *ast.AutoLink:
			refs = append(refs, string(typed.URL(body)))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// resolve classifies one destination. The empty string means the destination
// is fine: external, non-HTTP, same-document, or resolving to a known target.
func (s *Service) resolve(dest, baseRoute string, targets map[string]struct{}) string {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "empty destination"
	}

	parsed, err := url.Parse(dest)
	if err != nil {
		return "destination does not parse as a URL"
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host != "" && !strings.EqualFold(parsed.Host, s.host) {
		return ""
	}

	target := parsed.Path
	if target == "" {
		// Fragment-only or query-only destinations point at the document itself.
		return ""
	}
	if !strings.HasPrefix(target, "/") {
		base := url.URL{Path: baseRoute}
		target = base.ResolveReference(&url.URL{Path: target}).Path
	}

	if resolves(targets, target) {
		return ""
	}
	return "no matching route, alias, or asset"
}

// resolves checks a normalized absolute path against the target set. A bare
// path also matches its directory-style route, and an explicit index.html
// matches the pretty route it belongs to.
func resolves(targets map[string]struct{}, path string) bool {
	if _, ok := targets[path]; ok {
		return true
	}
	if !strings.HasSuffix(path, "/") {
		if _, ok := targets[path+"/"]; ok {
			return true
		}
	}
	if trimmed := strings.TrimSuffix(path, "index.html"); trimmed != path {
		if _, ok := targets[trimmed]; ok {
			return true
		}
	}
	return false
}
