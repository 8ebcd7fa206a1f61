package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/Nathan-Furnal/blog"
)

func fixtureOptions(t *testing.T) Options {
	t.Helper()
	cfg := blog.DefaultConfig()
	cfg.Site.BaseURL = "https://blog.example.com"
	cfg.Generator.OutputDir = filepath.Join(t.TempDir(), "public")
	return Options{
		Config:  &cfg,
		WorkDir: filepath.Join("..", "..", "testdata", "site"),
	}
}

func TestBuildSiteCollectsHandlers(t *testing.T) {
	opts := fixtureOptions(t)
	opts.EnableCommands = true

	resources, err := BuildSite(opts)
	if err != nil {
		t.Fatalf("build site: %v", err)
	}
	t.Cleanup(func() { resources.Site.Close() })

	if resources.Site == nil {
		t.Fatal("expected assembled site")
	}
	if resources.Collector == nil {
		t.Fatal("expected command collector")
	}
	// build, diff, clean, sitemap, check, import; archive refresh stays out
	// while the archive is disabled.
	if handlers := resources.Collector.Handlers(); len(handlers) != 6 {
		t.Fatalf("expected 6 collected handlers, got %d", len(handlers))
	}
}

func TestBuildSiteWithoutCommands(t *testing.T) {
	resources, err := BuildSite(fixtureOptions(t))
	if err != nil {
		t.Fatalf("build site: %v", err)
	}
	t.Cleanup(func() { resources.Site.Close() })

	if resources.Collector != nil {
		t.Fatal("expected no collector when commands are disabled")
	}
}
