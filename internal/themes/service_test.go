package themes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestThemeService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Dir:     filepath.Join("testdata", "themes"),
		Name:    "default",
		BaseURL: "https://blog.example.com",
	}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(Config{Name: "default"}, nil); !errors.Is(err, ErrDirRequired) {
		t.Fatalf("expected ErrDirRequired, got %v", err)
	}
	if _, err := NewService(Config{Dir: "testdata/themes"}, nil); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := NewService(Config{Dir: "testdata/themes", Name: "missing"}, nil); !errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound, got %v", err)
	}
}

func TestServiceManifest(t *testing.T) {
	svc := newTestThemeService(t)

	manifest, err := svc.Manifest()
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Name != "default" {
		t.Fatalf("expected theme name default, got %q", manifest.Name)
	}
	if manifest.Version != "1.0.0" {
		t.Fatalf("expected version 1.0.0, got %q", manifest.Version)
	}

	again, err := svc.Manifest()
	if err != nil {
		t.Fatalf("manifest second read: %v", err)
	}
	if again != manifest {
		t.Fatal("manifest should be cached after the first load")
	}
}

func TestServiceSelection(t *testing.T) {
	svc := newTestThemeService(t)

	selection, err := svc.Selection()
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if selection.Manifest == nil || selection.Manifest.Name != "default" {
		t.Fatalf("selection did not resolve the default theme: %+v", selection)
	}

	asset, ok := selection.Asset("stylesheet")
	if !ok {
		t.Fatalf("selection asset: stylesheet not found")
	}
	if !strings.Contains(asset, "site.css") {
		t.Fatalf("expected stylesheet asset, got %q", asset)
	}
}

func TestServiceAssets(t *testing.T) {
	svc := newTestThemeService(t)

	assets, err := svc.Assets()
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	want := []string{"assets/css/site.css", "assets/favicon.svg"}
	if len(assets) != len(want) {
		t.Fatalf("expected %d assets, got %v", len(want), assets)
	}
	for i, file := range want {
		if assets[i] != file {
			t.Fatalf("expected asset %q at %d, got %v", file, i, assets)
		}
	}
}

func TestServicePaths(t *testing.T) {
	svc := newTestThemeService(t)

	if svc.Name() != "default" {
		t.Fatalf("unexpected name %q", svc.Name())
	}
	if got := svc.Path(); got != filepath.Join("testdata", "themes", "default") {
		t.Fatalf("unexpected path %q", got)
	}
	if got := svc.AssetsDir(); got != filepath.Join("testdata", "themes", "default", "assets") {
		t.Fatalf("unexpected assets dir %q", got)
	}
}

func TestServiceRender(t *testing.T) {
	svc := newTestThemeService(t)

	if !svc.HasTemplate("post.html") {
		t.Fatal("expected post.html template")
	}
	if svc.HasTemplate("nope.html") {
		t.Fatal("unexpected template nope.html")
	}

	html, err := svc.Render("page.html", map[string]any{
		"Title":     "About",
		"SiteTitle": "Example Blog",
		"Content":   "<p>who we are</p>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "<p>who we are</p>") {
		t.Fatalf("rendered output missing body:\n%s", html)
	}
}

func TestServiceRejectsInvalidManifest(t *testing.T) {
	root := t.TempDir()
	theme := filepath.Join(root, "broken")
	if err := os.MkdirAll(filepath.Join(theme, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := []byte(`{"version": "1.0.0"}`)
	if err := os.WriteFile(filepath.Join(theme, "theme.json"), manifest, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	svc, err := NewService(Config{Dir: root, Name: "broken"}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Manifest(); !errors.Is(err, ErrManifestInvalid) {
		t.Fatalf("expected ErrManifestInvalid, got %v", err)
	}
}
