package buildcmd

import (
	"strings"

	"github.com/Nathan-Furnal/blog/internal/generator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	buildSiteMessageType    = "blog.build.site"
	diffSiteMessageType     = "blog.build.diff"
	cleanSiteMessageType    = "blog.build.clean"
	buildSitemapMessageType = "blog.build.sitemap"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a build command execution.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build using the provided filters.
type BuildSiteCommand struct {
	Sections       []string       `json:"sections,omitempty"`
	PageIDs        []uuid.UUID    `json:"page_ids,omitempty"`
	Force          bool           `json:"force,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	AssetsOnly     bool           `json:"assets_only,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures sections are well-formed and page identifiers are valid UUIDs.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, section := range m.Sections {
		if strings.TrimSpace(section) == "" {
			errs["sections"] = validation.NewError("blog.build.site.section_invalid", "sections must not contain empty values")
			break
		}
	}
	for _, id := range m.PageIDs {
		if id == uuid.Nil {
			errs["page_ids"] = validation.NewError("blog.build.site.page_id_invalid", "page_ids must contain valid identifiers")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DiffSiteCommand performs a dry-run build to surface differences without writing artifacts.
type DiffSiteCommand struct {
	Sections       []string       `json:"sections,omitempty"`
	PageIDs        []uuid.UUID    `json:"page_ids,omitempty"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (DiffSiteCommand) Type() string { return diffSiteMessageType }

// Validate ensures sections and page identifiers are well-formed.
func (m DiffSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, id := range m.PageIDs {
		if id == uuid.Nil {
			errs["page_ids"] = validation.NewError("blog.build.diff.page_id_invalid", "page_ids must contain valid identifiers")
			break
		}
	}
	for _, section := range m.Sections {
		if strings.TrimSpace(section) == "" {
			errs["sections"] = validation.NewError("blog.build.diff.section_invalid", "sections must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand removes generator artifacts from the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// BuildSitemapCommand regenerates sitemap.xml without a full site build.
type BuildSitemapCommand struct{}

// Type implements command.Message.
func (BuildSitemapCommand) Type() string { return buildSitemapMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (BuildSitemapCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
	SitemapEnabled   func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}

func (g FeatureGates) sitemapEnabled() bool {
	if g.SitemapEnabled == nil {
		return false
	}
	return g.SitemapEnabled()
}
