package blog

import "github.com/Nathan-Furnal/blog/internal/runtimeconfig"

var (
	ErrSiteBaseURLRequired        = runtimeconfig.ErrSiteBaseURLRequired
	ErrSiteBaseURLInvalid         = runtimeconfig.ErrSiteBaseURLInvalid
	ErrContentDirRequired         = runtimeconfig.ErrContentDirRequired
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorWorkersInvalid    = runtimeconfig.ErrGeneratorWorkersInvalid
	ErrGeneratorPageSizeInvalid   = runtimeconfig.ErrGeneratorPageSizeInvalid
	ErrThemeNameRequired          = runtimeconfig.ErrThemeNameRequired
	ErrTaxonomyNameInvalid        = runtimeconfig.ErrTaxonomyNameInvalid
	ErrTaxonomyNameDuplicate      = runtimeconfig.ErrTaxonomyNameDuplicate
	ErrFeedLimitInvalid           = runtimeconfig.ErrFeedLimitInvalid
	ErrArchivePathRequired        = runtimeconfig.ErrArchivePathRequired
	ErrServePortInvalid           = runtimeconfig.ErrServePortInvalid
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	SiteConfig      = runtimeconfig.SiteConfig
	ContentConfig   = runtimeconfig.ContentConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	HighlightConfig = runtimeconfig.HighlightConfig
	TaxonomyConfig  = runtimeconfig.TaxonomyConfig
	FeedsConfig     = runtimeconfig.FeedsConfig
	ThemeConfig     = runtimeconfig.ThemeConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	ArchiveConfig   = runtimeconfig.ArchiveConfig
	ServeConfig     = runtimeconfig.ServeConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the configuration a fresh site starts from.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// DefaultTaxonomies returns the tag and category groupings applied when the
// configuration does not declare any.
func DefaultTaxonomies() []TaxonomyConfig {
	return runtimeconfig.DefaultTaxonomies()
}
