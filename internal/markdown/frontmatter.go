package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Front matter may be TOML (+++), YAML (---), or JSON;
// the delimiters decide the format. It returns the structured front matter,
// the Markdown body without delimiters, and any error encountered.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	fm, err := envelopeToFrontMatter(meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, err
	}

	return fm, body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// section, raw content, and modification time. BodyHTML is intentionally left
// empty so callers can render lazily.
func BuildDocument(path string, section string, source []byte, modified time.Time) (*interfaces.Document, error) {
	frontmatter, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &interfaces.Document{
		FilePath:     path,
		Section:      section,
		FrontMatter:  frontmatter,
		Body:         body,
		LastModified: modified,
	}, nil
}

// frontMatterEnvelope mirrors the on-disk metadata shape. Date fields are
// declared as any because the TOML decoder yields time.Time for datetime
// values while the YAML decoder may yield strings; coerceTime reconciles both.
type frontMatterEnvelope struct {
	Title       string         `yaml:"title" toml:"title" json:"title"`
	Slug        string         `yaml:"slug" toml:"slug" json:"slug"`
	Description string         `yaml:"description" toml:"description" json:"description"`
	Template    string         `yaml:"template" toml:"template" json:"template"`
	Author      string         `yaml:"author" toml:"author" json:"author"`
	Date        any            `yaml:"date" toml:"date" json:"date"`
	Updated     any            `yaml:"updated" toml:"updated" json:"updated"`
	Draft       bool           `yaml:"draft" toml:"draft" json:"draft"`
	Weight      int            `yaml:"weight" toml:"weight" json:"weight"`
	Tags        []string       `yaml:"tags" toml:"tags" json:"tags"`
	Categories  []string       `yaml:"categories" toml:"categories" json:"categories"`
	Aliases     []string       `yaml:"aliases" toml:"aliases" json:"aliases"`
	Extra       map[string]any `yaml:"extra" toml:"extra" json:"extra"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) (interfaces.FrontMatter, error) {
	date, err := coerceTime(env.Date)
	if err != nil {
		return interfaces.FrontMatter{}, fmt.Errorf("parse frontmatter: date: %w", err)
	}

	updated, err := coerceTime(env.Updated)
	if err != nil {
		return interfaces.FrontMatter{}, fmt.Errorf("parse frontmatter: updated: %w", err)
	}

	if env.Extra == nil {
		env.Extra = map[string]any{}
	}

	raw := make(map[string]any, len(env.Extra)+10)

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Description != "" {
		raw["description"] = env.Description
	}
	if env.Template != "" {
		raw["template"] = env.Template
	}
	if env.Author != "" {
		raw["author"] = env.Author
	}
	if !date.IsZero() {
		raw["date"] = date
	}
	if !updated.IsZero() {
		raw["updated"] = updated
	}
	if env.Weight != 0 {
		raw["weight"] = env.Weight
	}
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if len(env.Categories) > 0 {
		raw["categories"] = append([]string(nil), env.Categories...)
	}
	if len(env.Aliases) > 0 {
		raw["aliases"] = append([]string(nil), env.Aliases...)
	}
	if len(env.Extra) > 0 {
		raw["extra"] = cloneMap(env.Extra)
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:       env.Title,
		Slug:        env.Slug,
		Description: env.Description,
		Template:    env.Template,
		Author:      env.Author,
		Date:        date,
		Updated:     updated,
		Draft:       env.Draft,
		Weight:      env.Weight,
		Tags:        append([]string(nil), env.Tags...),
		Categories:  append([]string(nil), env.Categories...),
		Aliases:     append([]string(nil), env.Aliases...),
		Extra:       cloneMap(env.Extra),
		Raw:         raw,
	}, nil
}

// dateLayouts are tried in order when a date arrives as a string. TOML
// datetimes decode directly to time.Time and skip this path.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised value %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", value)
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
