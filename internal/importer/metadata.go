package importer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// publishedLayouts are tried in order against published-time metadata. Open
// Graph and most CMSes emit RFC3339; bare dates show up on older sites.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var excessiveNewlines = regexp.MustCompile(`\n{3,}`)

// pageFromHTML extracts metadata with CSS selectors and converts the most
// article-like region of the page to Markdown.
func pageFromHTML(url string, html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("importer: parse %s: %w", url, err)
	}

	page := &Page{
		URL:         url,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Author:      metaContent(doc, `meta[name="author"]`),
		Published:   extractPublished(doc),
	}

	fragment, err := contentHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("importer: extract %s: %w", url, err)
	}
	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return nil, fmt.Errorf("importer: convert %s: %w", url, err)
	}
	page.Markdown = cleanMarkdown(markdown, page.Title)
	return page, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := metaContent(doc, `meta[property="og:title"]`); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if desc := metaContent(doc, `meta[property="og:description"]`); desc != "" {
		return desc
	}
	return metaContent(doc, `meta[name="description"]`)
}

func extractPublished(doc *goquery.Document) time.Time {
	candidates := []string{
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
	}
	if value, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, value)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		for _, layout := range publishedLayouts {
			if ts, err := time.Parse(layout, candidate); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}

func metaContent(doc *goquery.Document, selector string) string {
	value, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(value)
}

// contentHTML returns the inner HTML of the first region likely to hold the
// article body. Script, style, and navigation chrome are dropped first so
// they never leak into the Markdown.
func contentHTML(doc *goquery.Document) (string, error) {
	doc.Find("script, style, noscript, iframe, nav, aside").Remove()

	for _, selector := range []string{"article", "main", "body"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		html, err := sel.Html()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(html) != "" {
			return html, nil
		}
	}
	return goquery.OuterHtml(doc.Selection)
}

// cleanMarkdown tightens converter output: a lead heading repeating the page
// title drops out since the title already lives in front matter, and
// blank-line runs collapse.
func cleanMarkdown(markdown, title string) string {
	text := strings.TrimSpace(markdown)
	if title != "" {
		for _, prefix := range []string{"# " + title, "## " + title} {
			if strings.HasPrefix(text, prefix) {
				text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
				break
			}
		}
	}
	text = excessiveNewlines.ReplaceAllString(text, "\n\n")
	if text == "" {
		return ""
	}
	return text + "\n"
}
