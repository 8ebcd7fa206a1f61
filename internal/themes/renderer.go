package themes

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nathan-Furnal/blog/internal/content"
)

const (
	baseTemplateName = "base.html"
	partialsDirName  = "partials"
)

// ErrTemplateNotFound is returned when a page template is missing from the
// theme's templates directory.
var ErrTemplateNotFound = errors.New("themes: template not found")

// Renderer parses a theme's templates directory lazily on first render.
//
// base.html and everything under partials/ form a shared set. Every other
// template file is a page template and gets its own clone of the shared set,
// so each page can define the same block names (content, head, ...) without
// clobbering its siblings. Pages render through base.html when the theme
// ships one, otherwise the page template executes on its own.
type Renderer struct {
	dir   string
	funcs template.FuncMap

	once sync.Once
	sets map[string]*template.Template
	err  error
}

// NewRenderer builds a renderer rooted at the given templates directory.
func NewRenderer(dir string, funcs template.FuncMap) *Renderer {
	return &Renderer{dir: dir, funcs: funcs}
}

func (r *Renderer) load() error {
	r.once.Do(func() {
		r.sets = map[string]*template.Template{}

		var shared, pages []string
		walkErr := filepath.WalkDir(r.dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".html" && ext != ".tmpl" {
				return nil
			}

			rel, relErr := filepath.Rel(r.dir, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			switch {
			case rel == baseTemplateName:
				shared = append(shared, path)
			case strings.HasPrefix(rel, partialsDirName+"/"):
				shared = append(shared, path)
			default:
				pages = append(pages, path)
			}
			return nil
		})
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				r.err = fmt.Errorf("themes: templates directory %q missing", r.dir)
				return
			}
			r.err = fmt.Errorf("themes: scan templates: %w", walkErr)
			return
		}
		if len(pages) == 0 {
			r.err = fmt.Errorf("themes: no page templates under %q", r.dir)
			return
		}
		sort.Strings(shared)
		sort.Strings(pages)

		root := template.New("theme").Funcs(r.funcs)
		if len(shared) > 0 {
			parsed, err := root.ParseFiles(shared...)
			if err != nil {
				r.err = fmt.Errorf("themes: parse shared templates: %w", err)
				return
			}
			root = parsed
		}

		for _, page := range pages {
			set, err := root.Clone()
			if err != nil {
				r.err = fmt.Errorf("themes: clone template set: %w", err)
				return
			}
			set, err = set.ParseFiles(page)
			if err != nil {
				r.err = fmt.Errorf("themes: parse template: %w", err)
				return
			}
			r.sets[filepath.Base(page)] = set
		}
	})
	return r.err
}

// Render executes the named page template into the optional writer and
// returns the rendered markup.
func (r *Renderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

// RenderTemplate executes the named page template. When the theme ships a
// base.html the page renders through it.
func (r *Renderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if err := r.load(); err != nil {
		return "", err
	}

	set, ok := r.sets[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	entry := name
	if set.Lookup(baseTemplateName) != nil {
		entry = baseTemplateName
	}

	var buf bytes.Buffer
	var writer io.Writer = &buf
	if len(out) > 0 && out[0] != nil {
		writer = io.MultiWriter(&buf, out[0])
	}
	if err := set.ExecuteTemplate(writer, entry, data); err != nil {
		return "", fmt.Errorf("themes: render %q: %w", name, err)
	}
	return buf.String(), nil
}

// RenderString parses an inline template with the theme helpers and executes
// it. Useful for one-off snippets such as alias redirect stubs.
func (r *Renderer) RenderString(tmpl string, data any, out ...io.Writer) (string, error) {
	parsed, err := template.New("inline").Funcs(r.funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("themes: parse inline template: %w", err)
	}

	var buf bytes.Buffer
	var writer io.Writer = &buf
	if len(out) > 0 && out[0] != nil {
		writer = io.MultiWriter(&buf, out[0])
	}
	if err := parsed.Execute(writer, data); err != nil {
		return "", fmt.Errorf("themes: render inline template: %w", err)
	}
	return buf.String(), nil
}

// Has reports whether the named page template exists.
func (r *Renderer) Has(name string) bool {
	if err := r.load(); err != nil {
		return false
	}
	_, ok := r.sets[name]
	return ok
}

// Templates returns the page template names, sorted.
func (r *Renderer) Templates() ([]string, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FuncMap returns the helper set exposed to theme templates.
func FuncMap(baseURL string) template.FuncMap {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return template.FuncMap{
		"safeHTML": toHTML,
		"formatDate": func(value time.Time, layout string) string {
			if value.IsZero() {
				return ""
			}
			if strings.TrimSpace(layout) == "" {
				layout = "January 2, 2006"
			}
			return value.Format(layout)
		},
		"absURL": func(path string) string {
			trimmed := strings.TrimSpace(path)
			if trimmed == "" {
				return base
			}
			if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
				return trimmed
			}
			return base + "/" + strings.TrimLeft(trimmed, "/")
		},
		"relURL": func(path string) string {
			trimmed := strings.TrimSpace(path)
			if base != "" {
				trimmed = strings.TrimPrefix(trimmed, base)
			}
			if !strings.HasPrefix(trimmed, "/") {
				trimmed = "/" + trimmed
			}
			return trimmed
		},
		"slugify": content.NormalizeSlug,
		"truncate": func(value string, max int) string {
			if max <= 0 {
				return ""
			}
			runes := []rune(value)
			if len(runes) <= max {
				return value
			}
			return strings.TrimRight(string(runes[:max]), " ") + "…"
		},
	}
}

func toHTML(value any) template.HTML {
	switch typed := value.(type) {
	case template.HTML:
		return typed
	case string:
		return template.HTML(typed)
	case []byte:
		return template.HTML(typed)
	case fmt.Stringer:
		return template.HTML(typed.String())
	default:
		return template.HTML(fmt.Sprint(typed))
	}
}
