package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PostUUID derives the stable identifier for a content file. The source path
// is normalized to forward slashes so IDs survive OS differences.
func PostUUID(sourcePath string) uuid.UUID {
	normalized := strings.ReplaceAll(strings.TrimSpace(sourcePath), "\\", "/")
	return UUID("blog:post:" + normalized)
}

// TermUUID derives the stable identifier for a taxonomy term.
func TermUUID(taxonomy, termSlug string) uuid.UUID {
	return UUID("blog:term:" + strings.ToLower(strings.TrimSpace(taxonomy)) + ":" + strings.ToLower(strings.TrimSpace(termSlug)))
}

// SectionUUID derives the stable identifier for a content section.
func SectionUUID(section string) uuid.UUID {
	return UUID("blog:section:" + strings.ToLower(strings.TrimSpace(section)))
}

// RouteUUID derives the stable identifier for a generated listing route such
// as a paginated home page or a taxonomy index.
func RouteUUID(route string) uuid.UUID {
	return UUID("blog:route:" + strings.TrimSpace(route))
}

// ThemeUUID derives the stable identifier for a theme directory.
func ThemeUUID(themePath string) uuid.UUID {
	return UUID("blog:theme:" + strings.TrimSpace(themePath))
}

// TemplateUUID derives the stable identifier for a template within a theme.
func TemplateUUID(themeID uuid.UUID, slug string) uuid.UUID {
	return UUID("blog:template:" + themeID.String() + ":" + strings.ToLower(strings.TrimSpace(slug)))
}
