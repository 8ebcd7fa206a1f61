package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/Nathan-Furnal/blog/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresContentDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresOutputDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.OutputDir = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrGeneratorOutputDirRequired) {
		t.Fatalf("expected ErrGeneratorOutputDirRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresAbsoluteBaseURLForFeeds(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.BaseURL = "/just/a/path"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSiteBaseURLRequired) {
		t.Fatalf("expected ErrSiteBaseURLRequired, got %v", err)
	}
}

func TestConfigValidate_AllowsRelativeBaseURLWhenFeedsAndSitemapDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.BaseURL = ""
	cfg.Feeds.Enabled = false
	cfg.Generator.Sitemap = false

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsUppercaseTaxonomy(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Taxonomies = append(cfg.Taxonomies, runtimeconfig.TaxonomyConfig{Name: "Series"})

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrTaxonomyNameInvalid) {
		t.Fatalf("expected ErrTaxonomyNameInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsDuplicateTaxonomy(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Taxonomies = append(cfg.Taxonomies, runtimeconfig.TaxonomyConfig{Name: "tags"})

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrTaxonomyNameDuplicate) {
		t.Fatalf("expected ErrTaxonomyNameDuplicate, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeFeedLimit(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Feeds.Limit = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrFeedLimitInvalid) {
		t.Fatalf("expected ErrFeedLimitInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresArchivePathWhenEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Archive.Enabled = true
	cfg.Archive.Path = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrArchivePathRequired) {
		t.Fatalf("expected ErrArchivePathRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidServePort(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Serve.Port = 70000

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrServePortInvalid) {
		t.Fatalf("expected ErrServePortInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigTaxonomy_Lookup(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	tags, ok := cfg.Taxonomy("tags")
	if !ok || tags.Name != "tags" || !tags.Feed {
		t.Fatalf("expected tags taxonomy with feed enabled, got %#v (ok=%v)", tags, ok)
	}

	if _, ok := cfg.Taxonomy("series"); ok {
		t.Fatalf("expected series taxonomy to be absent")
	}
}
