// Package themes loads a theme directory, validates its manifest and renders
// its templates. A theme is a directory under the configured themes root with
// a theme.json manifest, a templates/ tree and an optional assets/ tree.
package themes

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var (
	// ErrDirRequired is returned when the themes root directory is missing.
	ErrDirRequired = errors.New("themes: themes directory is required")
	// ErrNameRequired is returned when no theme name is configured.
	ErrNameRequired = errors.New("themes: theme name is required")
	// ErrThemeNotFound is returned when the named theme directory does not exist.
	ErrThemeNotFound = errors.New("themes: theme not found")
)

// Config carries the theme selection for a site build.
type Config struct {
	// Dir is the themes root, usually "themes" next to the content tree.
	Dir string
	// Name selects the theme directory under Dir.
	Name string
	// BaseURL feeds the absURL/relURL template helpers.
	BaseURL string
}

// Service resolves one theme: manifest, template set and static assets.
type Service struct {
	cfg      Config
	path     string
	logger   interfaces.Logger
	registry *gotheme.MemoryRegistry
	renderer *Renderer

	mu        sync.Mutex
	manifest  *gotheme.Manifest
	selection *gotheme.Selection
}

// NewService verifies the theme directory exists and prepares a lazy loader
// for its manifest and templates.
func NewService(cfg Config, provider interfaces.LoggerProvider) (*Service, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, ErrDirRequired
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, ErrNameRequired
	}

	path := filepath.Join(cfg.Dir, cfg.Name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, path)
	}

	return &Service{
		cfg:      cfg,
		path:     path,
		logger:   logging.ThemesLogger(provider),
		registry: gotheme.NewRegistry(),
		renderer: NewRenderer(filepath.Join(path, "templates"), FuncMap(cfg.BaseURL)),
	}, nil
}

// Name returns the configured theme name.
func (s *Service) Name() string {
	return s.cfg.Name
}

// Path returns the selected theme's root directory.
func (s *Service) Path() string {
	return s.path
}

// AssetsDir returns the theme's static asset directory. The directory may not
// exist for themes that ship no assets.
func (s *Service) AssetsDir() string {
	return filepath.Join(s.path, "assets")
}

// Manifest reads and validates theme.json on first use and registers it with
// the theme registry. Subsequent calls return the cached manifest.
func (s *Service) Manifest() (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifestLocked()
}

func (s *Service) manifestLocked() (*gotheme.Manifest, error) {
	if s.manifest != nil {
		return s.manifest, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.path, "theme.json"))
	if err != nil {
		return nil, fmt.Errorf("themes: read manifest: %w", err)
	}
	if err := ValidateManifest(raw); err != nil {
		return nil, err
	}

	manifest, err := gotheme.LoadDir(os.DirFS(s.path), ".")
	if err != nil {
		return nil, fmt.Errorf("themes: load manifest: %w", err)
	}

	loaded := *manifest
	if strings.TrimSpace(loaded.Name) == "" {
		loaded.Name = s.cfg.Name
	}
	if err := s.registry.Register(&loaded); err != nil {
		return nil, fmt.Errorf("themes: register manifest: %w", err)
	}

	s.logger.Debug("theme manifest loaded",
		"theme", loaded.Name,
		"version", loaded.Version,
	)

	s.manifest = &loaded
	return s.manifest, nil
}

// Selection resolves the configured theme through the registry selector. The
// selection exposes design tokens, partial fallbacks and asset lookups.
func (s *Service) Selection() (*gotheme.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection != nil {
		return s.selection, nil
	}
	if _, err := s.manifestLocked(); err != nil {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:     s.registry,
		DefaultTheme: s.cfg.Name,
	}
	selection, err := selector.Select(s.cfg.Name, "")
	if err != nil {
		return nil, fmt.Errorf("themes: select %q: %w", s.cfg.Name, err)
	}

	s.selection = selection
	return s.selection, nil
}

// Assets lists the manifest-declared asset files relative to the theme root,
// sorted and deduped. Files on disk that the manifest does not mention are
// still copied by the build; this list only drives template asset lookups.
func (s *Service) Assets() ([]string, error) {
	manifest, err := s.Manifest()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var files []string
	for _, file := range manifest.Assets.Files {
		trimmed := strings.TrimSpace(file)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		files = append(files, trimmed)
	}
	sort.Strings(files)
	return files, nil
}

// Render executes the named page template. Pages render inside base.html when
// the theme ships one.
func (s *Service) Render(name string, data any, out ...io.Writer) (string, error) {
	return s.renderer.Render(name, data, out...)
}

// RenderTemplate is an alias for Render kept for the TemplateRenderer contract.
func (s *Service) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	return s.renderer.RenderTemplate(name, data, out...)
}

// RenderString parses and executes an inline template with the theme helpers.
func (s *Service) RenderString(tmpl string, data any, out ...io.Writer) (string, error) {
	return s.renderer.RenderString(tmpl, data, out...)
}

// HasTemplate reports whether the theme ships the named page template.
func (s *Service) HasTemplate(name string) bool {
	return s.renderer.Has(name)
}

// Templates lists the theme's page templates, sorted by name.
func (s *Service) Templates() ([]string, error) {
	return s.renderer.Templates()
}

var _ interfaces.TemplateRenderer = (*Service)(nil)
