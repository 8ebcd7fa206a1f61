package content

import (
	"strings"

	slug "github.com/goliatone/go-slug"
)

// NormalizeSlug applies the default slug rules. Values the normalizer cannot
// handle fall back to a lowercased trim so a post never loses its route over
// an exotic title.
func NormalizeSlug(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || strings.TrimSpace(normalized) == "" {
		return strings.ToLower(strings.ReplaceAll(trimmed, " ", "-"))
	}
	return normalized
}

// IsValidSlug reports whether value already satisfies the slug rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}
