package importer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/markdown"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="Shipping Static Sites">
<meta property="og:description" content="Notes on deploying a static blog.">
<meta name="author" content="Sam Writer">
<meta property="article:published_time" content="2025-06-01T09:30:00Z">
</head>
<body>
<nav><a href="/">site navigation</a></nav>
<article>
<h1>Shipping Static Sites</h1>
<p>Static sites are <strong>fast</strong> to serve.</p>
<h2>Pipelines</h2>
<p>Wire the build into <a href="https://example.com/ci">your CI</a>.</p>
</article>
<footer>footer boilerplate</footer>
</body>
</html>`

func newArticleServer(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func newImportService(t *testing.T, client *http.Client, opts ...importer.Option) (*importer.Service, string) {
	t.Helper()

	dir := t.TempDir()
	writer := scaffold.NewService(scaffold.Config{ContentDir: dir}, nil)
	opts = append([]importer.Option{importer.WithHTTPClient(client)}, opts...)
	svc, err := importer.NewService(importer.Config{}, writer, nil, opts...)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	return svc, dir
}

func TestImportWritesDraftFromArticle(t *testing.T) {
	server := newArticleServer(t, http.StatusOK, articleHTML)
	svc, _ := newImportService(t, server.Client())

	sourceURL := server.URL + "/shipping-static-sites"
	result, err := svc.Import(context.Background(), importer.ImportInput{URL: sourceURL})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Page.Title != "Shipping Static Sites" {
		t.Fatalf("unexpected page title %q", result.Page.Title)
	}
	if result.File.Section != "posts" {
		t.Fatalf("expected default posts section, got %q", result.File.Section)
	}

	data, err := os.ReadFile(result.File.Path)
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	fm, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if fm.Title != "Shipping Static Sites" || !fm.Draft {
		t.Fatalf("unexpected front matter %+v", fm)
	}
	if fm.Description != "Notes on deploying a static blog." {
		t.Fatalf("unexpected description %q", fm.Description)
	}
	if fm.Author != "Sam Writer" {
		t.Fatalf("unexpected author %q", fm.Author)
	}
	want := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	if !fm.Date.Equal(want) {
		t.Fatalf("expected published time %v, got %v", want, fm.Date)
	}
	if src, _ := fm.Extra["source"].(string); src != sourceURL {
		t.Fatalf("expected source url in extra, got %v", fm.Extra)
	}

	text := string(body)
	if !strings.Contains(text, "**fast**") {
		t.Fatalf("expected converted emphasis, got %q", text)
	}
	if !strings.Contains(text, "## Pipelines") {
		t.Fatalf("expected converted heading, got %q", text)
	}
	if !strings.Contains(text, "[your CI](https://example.com/ci)") {
		t.Fatalf("expected converted link, got %q", text)
	}
	if strings.Contains(text, "# Shipping Static Sites") {
		t.Fatalf("expected duplicate title heading dropped, got %q", text)
	}
	if strings.Contains(text, "site navigation") || strings.Contains(text, "footer boilerplate") {
		t.Fatalf("expected page chrome stripped, got %q", text)
	}
}

func TestImportHonoursSectionAndFormat(t *testing.T) {
	server := newArticleServer(t, http.StatusOK, articleHTML)
	svc, _ := newImportService(t, server.Client())

	result, err := svc.Import(context.Background(), importer.ImportInput{
		URL:     server.URL + "/post",
		Section: "clips",
		Format:  scaffold.FormatYAML,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.File.Section != "clips" {
		t.Fatalf("expected clips section, got %q", result.File.Section)
	}

	data, err := os.ReadFile(result.File.Path)
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Fatalf("expected YAML front matter, got %q", data[:16])
	}
}

func TestImportReportsHTTPError(t *testing.T) {
	server := newArticleServer(t, http.StatusNotFound, "gone")
	svc, _ := newImportService(t, server.Client())

	_, err := svc.Import(context.Background(), importer.ImportInput{URL: server.URL + "/missing"})
	var httpErr *importer.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", httpErr.StatusCode)
	}
}

func TestImportValidatesURL(t *testing.T) {
	server := newArticleServer(t, http.StatusOK, articleHTML)
	svc, _ := newImportService(t, server.Client())

	if _, err := svc.Import(context.Background(), importer.ImportInput{URL: "   "}); !errors.Is(err, importer.ErrURLRequired) {
		t.Fatalf("expected ErrURLRequired, got %v", err)
	}
	if _, err := svc.Import(context.Background(), importer.ImportInput{URL: "ftp://example.com/file"}); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

type clipHandler struct{}

func (clipHandler) CanHandle(url string, _ *http.Response) bool {
	return strings.Contains(url, "/clip/")
}

func (clipHandler) Handle(url string, _ *http.Response) (*importer.Page, error) {
	return &importer.Page{URL: url, Title: "Recorded Clip", Markdown: "clip body\n"}, nil
}

func TestImportPrefersRegisteredHandler(t *testing.T) {
	server := newArticleServer(t, http.StatusOK, articleHTML)
	svc, _ := newImportService(t, server.Client(), importer.WithHandler(clipHandler{}))

	result, err := svc.Import(context.Background(), importer.ImportInput{URL: server.URL + "/clip/42"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Page.Title != "Recorded Clip" {
		t.Fatalf("expected clip handler to win, got %q", result.Page.Title)
	}

	data, err := os.ReadFile(result.File.Path)
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	if !strings.Contains(string(data), "clip body") {
		t.Fatalf("expected handler body, got %q", data)
	}

	// A URL outside the handler's territory still converts as HTML.
	result, err = svc.Import(context.Background(), importer.ImportInput{URL: server.URL + "/article", Force: true})
	if err != nil {
		t.Fatalf("import fallback: %v", err)
	}
	if result.Page.Title != "Shipping Static Sites" {
		t.Fatalf("expected HTML fallback, got %q", result.Page.Title)
	}
}

func TestImportFallsBackToPathTitle(t *testing.T) {
	server := newArticleServer(t, http.StatusOK, "<html><body><p>plain words</p></body></html>")
	svc, _ := newImportService(t, server.Client())

	result, err := svc.Import(context.Background(), importer.ImportInput{URL: server.URL + "/notes/some-series_part-2.html"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.File.Title != "some series part 2" {
		t.Fatalf("expected title from path, got %q", result.File.Title)
	}
	if result.File.Slug != "some-series-part-2" {
		t.Fatalf("expected slug from path title, got %q", result.File.Slug)
	}
}
