package contentcmd

import (
	"context"
	"errors"
	"strings"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/linkcheck"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	checkLinksMessageType = "blog.content.check"
	importPageMessageType = "blog.content.import"
)

var (
	// ErrCheckUnavailable indicates the check handler was built without its dependencies.
	ErrCheckUnavailable = errors.New("contentcmd: model loader and link checker are required")
	// ErrImportUnavailable indicates no importer service was provided.
	ErrImportUnavailable = errors.New("contentcmd: importer service is required")
	// ErrViolationsFound reports unresolved internal links. The handler attaches the count.
	ErrViolationsFound = errors.New("contentcmd: unresolved internal links")
)

// ModelLoader produces the content model commands operate on. The content
// service satisfies it.
type ModelLoader interface {
	Load(ctx context.Context) (*content.Model, error)
}

// LinkChecker verifies internal destinations against the published route set.
type LinkChecker interface {
	Check(ctx context.Context, model *content.Model, extra ...string) ([]linkcheck.Violation, error)
}

// PageImporter turns an external URL into a draft post.
type PageImporter interface {
	Import(ctx context.Context, input importer.ImportInput) (*importer.ImportResult, error)
}

// CheckReport carries the violations a check run collected.
type CheckReport struct {
	Violations []linkcheck.Violation
}

// CheckCallback receives the report produced by a check execution. The
// callback is optional and is invoked synchronously from the handler.
type CheckCallback func(CheckReport)

// ImportCallback receives the result of a page import.
type ImportCallback func(*importer.ImportResult)

// CheckLinksCommand verifies every internal link in the content tree resolves.
type CheckLinksCommand struct {
	// Extra lists additional routes that count as published, for targets
	// produced outside the content tree.
	Extra          []string      `json:"extra,omitempty"`
	ResultCallback CheckCallback `json:"-"`
}

// Type implements command.Message.
func (CheckLinksCommand) Type() string { return checkLinksMessageType }

// Validate ensures extra routes are well-formed.
func (m CheckLinksCommand) Validate() error {
	errs := validation.Errors{}
	for _, route := range m.Extra {
		if strings.TrimSpace(route) == "" {
			errs["extra"] = validation.NewError("blog.content.check.extra_invalid", "extra routes must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportPageCommand fetches an external page and scaffolds it as a draft post.
type ImportPageCommand struct {
	URL            string         `json:"url"`
	Section        string         `json:"section,omitempty"`
	Format         string         `json:"format,omitempty"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ImportCallback `json:"-"`
}

// Type implements command.Message.
func (ImportPageCommand) Type() string { return importPageMessageType }

// Validate ensures a URL is present and the front matter format is supported.
func (cmd ImportPageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.URL, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("blog.content.import.url_required", "url is required")
			}
			return nil
		})),
		validation.Field(&cmd.Format, validation.In("toml", "yaml")),
	)
}

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	ArchiveEnabled func() bool
}

func (g FeatureGates) archiveEnabled() bool {
	if g.ArchiveEnabled == nil {
		return false
	}
	return g.ArchiveEnabled()
}
