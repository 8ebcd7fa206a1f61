package markdown

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

func TestParseFrontMatter_TOML(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Terminal Notes" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Slug != "terminal-notes" {
		t.Fatalf("FrontMatter Slug mismatch, got %q", fm.Slug)
	}
	if want := time.Date(2025, 8, 12, 10, 30, 0, 0, time.UTC); !fm.Date.Equal(want) {
		t.Fatalf("FrontMatter Date mismatch, got %v", fm.Date)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if len(fm.Aliases) != 1 || fm.Aliases[0] != "/old/terminal-notes/" {
		t.Fatalf("FrontMatter Aliases mismatch: %#v", fm.Aliases)
	}
	if fm.Robots() != "noindex" {
		t.Fatalf("expected extra.robots noindex, got %q", fm.Robots())
	}
	if fm.Extra["featured"] != true {
		t.Fatalf("FrontMatter Extra featured missing: %#v", fm.Extra)
	}
	if len(body) == 0 || !strings.Contains(string(body), "# Terminal Notes") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatter_YAML(t *testing.T) {
	data := readFixture(t, "testdata/yaml.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Spring Cleaning" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if !fm.Draft {
		t.Fatalf("expected draft to be true")
	}
	if want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC); !fm.Date.Equal(want) {
		t.Fatalf("expected bare date to parse, got %v", fm.Date)
	}
	if !strings.Contains(string(body), "A shorter note") {
		t.Fatalf("unexpected body: %q", string(body))
	}
}

func TestParseFrontMatter_JSON(t *testing.T) {
	data := readFixture(t, "testdata/json.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Release Retrospective" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if len(fm.Tags) != 1 || fm.Tags[0] != "releases" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if !strings.Contains(string(body), "Lessons learned") {
		t.Fatalf("unexpected body: %q", string(body))
	}
}

func TestParseFrontMatter_BadDate(t *testing.T) {
	src := []byte("---\ntitle: Broken\ndate: not-a-date\n---\nbody\n")

	if _, _, err := ParseFrontMatter(src); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}

func TestBuildDocument(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")
	modified := time.Now().UTC()

	doc, err := BuildDocument("posts/terminal-notes.md", "posts", data, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if doc.FilePath != "posts/terminal-notes.md" {
		t.Fatalf("expected FilePath to be set, got %q", doc.FilePath)
	}
	if doc.Section != "posts" {
		t.Fatalf("expected Section to be posts, got %q", doc.Section)
	}
	if doc.LastModified != modified {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
	if len(doc.Body) == 0 {
		t.Fatalf("expected Body to contain markdown content")
	}
	if len(doc.BodyHTML) != 0 {
		t.Fatalf("expected BodyHTML to stay empty until rendered")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}

	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_HighlightsFences(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{HighlightTheme: "monokai"})

	html, err := parser.Parse([]byte("```go\nfunc main() {}\n```\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<pre") {
		t.Fatalf("expected highlighted <pre> block, got %q", got)
	}
	if !strings.Contains(got, "<span") {
		t.Fatalf("expected chroma span markup, got %q", got)
	}
}

func TestResolveHighlightStyle(t *testing.T) {
	cases := []struct {
		name  string
		want  string
		known bool
	}{
		{"monokai", "monokai", true},
		{"Friendly", "friendly", true},
		{"", DefaultHighlightTheme, true},
		{"no-such-style", DefaultHighlightTheme, false},
	}

	for _, tc := range cases {
		got, known := ResolveHighlightStyle(tc.name)
		if got != tc.want || known != tc.known {
			t.Fatalf("ResolveHighlightStyle(%q) = (%q, %v), want (%q, %v)", tc.name, got, known, tc.want, tc.known)
		}
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
