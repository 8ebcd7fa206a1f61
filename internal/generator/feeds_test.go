package generator

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestBuildFeedDocumentsSiteAndTerms(t *testing.T) {
	now := time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(t, now)
	fixtures.Config.FeedsEnabled = true
	svc := newTestGenerator(t, fixtures, newRecordingRenderer(), nil, now)

	buildCtx, err := svc.loadContext(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("load context: %v", err)
	}

	docs := buildFeedDocuments(svc.cfg, fixtures.URLs, buildCtx)
	if len(docs) != 3 {
		t.Fatalf("expected site feed plus 2 tag feeds, got %d", len(docs))
	}

	byPath := map[string]feedDocument{}
	for _, doc := range docs {
		byPath[doc.RSSPath] = doc
	}

	site, ok := byPath["rss.xml"]
	if !ok {
		t.Fatalf("expected site feed, got %v", byPath)
	}
	if site.Scope != "site" || site.AtomPath != "atom.xml" {
		t.Fatalf("unexpected site feed shape: %+v", site)
	}
	if len(site.Items) != 3 {
		t.Fatalf("expected 3 site items, got %d", len(site.Items))
	}
	if site.Items[0].Title != "Go Modules Explained" {
		t.Fatalf("expected newest item first, got %q", site.Items[0].Title)
	}
	if site.Items[0].GUID != "https://example.com/posts/go-modules/" {
		t.Fatalf("expected permalink GUID, got %q", site.Items[0].GUID)
	}

	goFeed, ok := byPath["tags/go/rss.xml"]
	if !ok {
		t.Fatalf("expected go tag feed, got %v", byPath)
	}
	if goFeed.Scope != "term" || goFeed.AtomPath != "" {
		t.Fatalf("term feeds carry RSS only, got %+v", goFeed)
	}
	if len(goFeed.Items) != 2 {
		t.Fatalf("expected 2 posts tagged go, got %d", len(goFeed.Items))
	}
	if !strings.Contains(goFeed.Title, "(go)") {
		t.Fatalf("expected term in feed title, got %q", goFeed.Title)
	}

	// categories taxonomy has Feed disabled
	if _, ok := byPath["categories/notes/rss.xml"]; ok {
		t.Fatal("expected no feed for taxonomy without feeds enabled")
	}
}

func TestFeedItemsLimitAndDedupe(t *testing.T) {
	now := time.Date(2025, 4, 11, 8, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(t, now)

	posts := fixtures.Model.Posts
	duplicated := append(posts, posts[0])
	items := feedItems(duplicated, 2, now)
	if len(items) != 2 {
		t.Fatalf("expected limit of 2 items, got %d", len(items))
	}
	guids := map[string]int{}
	for _, item := range feedItems(duplicated, 10, now) {
		guids[item.GUID]++
	}
	for guid, count := range guids {
		if count != 1 {
			t.Fatalf("expected GUID %s once, got %d", guid, count)
		}
	}
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel struct {
		Title         string `xml:"title"`
		Link          string `xml:"link"`
		Description   string `xml:"description"`
		Language      string `xml:"language"`
		LastBuildDate string `xml:"lastBuildDate"`
		Items         []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			GUID    string `xml:"guid"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

func TestBuildRSSFeedIsWellFormed(t *testing.T) {
	generated := time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC)
	doc := feedDocument{
		Scope:       "site",
		Title:       "Example & Blog",
		Description: "Notes <on> things",
		Link:        "https://example.com/",
		Language:    "en",
		RSSURL:      "https://example.com/rss.xml",
		Items: []feedItem{
			{
				Title:       "Hello <World>",
				Summary:     "A & B",
				Link:        "https://example.com/posts/hello/",
				GUID:        "https://example.com/posts/hello/",
				PublishedAt: generated.Add(-time.Hour),
			},
		},
	}

	raw := buildRSSFeed(doc, generated)

	var parsed rssDocument
	if err := xml.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("rss not well-formed: %v\n%s", err, raw)
	}
	if parsed.Version != "2.0" {
		t.Fatalf("expected rss 2.0, got %q", parsed.Version)
	}
	if parsed.Channel.Title != "Example & Blog" {
		t.Fatalf("expected unescaped title after parse, got %q", parsed.Channel.Title)
	}
	if len(parsed.Channel.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(parsed.Channel.Items))
	}
	item := parsed.Channel.Items[0]
	if item.Title != "Hello <World>" {
		t.Fatalf("expected escaped title to round-trip, got %q", item.Title)
	}
	if _, err := time.Parse(time.RFC1123Z, item.PubDate); err != nil {
		t.Fatalf("expected RFC1123Z pubDate, got %q: %v", item.PubDate, err)
	}
}

type atomDocument struct {
	XMLName xml.Name `xml:"feed"`
	ID      string   `xml:"id"`
	Title   string   `xml:"title"`
	Updated string   `xml:"updated"`
	Links   []struct {
		Rel  string `xml:"rel,attr"`
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Entries []struct {
		ID        string `xml:"id"`
		Title     string `xml:"title"`
		Updated   string `xml:"updated"`
		Published string `xml:"published"`
	} `xml:"entry"`
}

func TestBuildAtomFeedIsWellFormed(t *testing.T) {
	generated := time.Date(2025, 4, 13, 9, 30, 0, 0, time.UTC)
	doc := feedDocument{
		Scope:    "site",
		Title:    "Example Blog",
		Link:     "https://example.com/",
		Language: "en",
		AtomURL:  "https://example.com/atom.xml",
		Items: []feedItem{
			{
				Title:       "Hello",
				Link:        "https://example.com/posts/hello/",
				GUID:        "https://example.com/posts/hello/",
				PublishedAt: generated.Add(-2 * time.Hour),
				UpdatedAt:   generated.Add(-time.Hour),
			},
		},
	}

	raw := buildAtomFeed(doc, generated)

	var parsed atomDocument
	if err := xml.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("atom not well-formed: %v\n%s", err, raw)
	}
	if parsed.ID != "https://example.com/atom.xml" {
		t.Fatalf("expected feed id, got %q", parsed.ID)
	}
	var self, alternate string
	for _, link := range parsed.Links {
		switch link.Rel {
		case "self":
			self = link.Href
		case "alternate":
			alternate = link.Href
		}
	}
	if self != "https://example.com/atom.xml" {
		t.Fatalf("expected self link, got %q", self)
	}
	if alternate != "https://example.com/" {
		t.Fatalf("expected alternate link, got %q", alternate)
	}
	if len(parsed.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(parsed.Entries))
	}
	if _, err := time.Parse(time.RFC3339, parsed.Entries[0].Updated); err != nil {
		t.Fatalf("expected RFC3339 updated, got %q: %v", parsed.Entries[0].Updated, err)
	}
	if _, err := time.Parse(time.RFC3339, parsed.Entries[0].Published); err != nil {
		t.Fatalf("expected RFC3339 published, got %q: %v", parsed.Entries[0].Published, err)
	}
}

func TestFirstNonZeroTime(t *testing.T) {
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := firstNonZeroTime(time.Time{}, stamp, stamp.Add(time.Hour)); !got.Equal(stamp) {
		t.Fatalf("expected first non-zero value, got %v", got)
	}
	if got := firstNonZeroTime(time.Time{}, time.Time{}); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("  a\n\tb   c "); got != "a b c" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
	if got := normalizeWhitespace("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
