package generator

import (
	"context"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/urls"
)

const (
	defaultFeedLimit    = 100
	defaultRSSFilename  = "rss.xml"
	defaultAtomFilename = "atom.xml"
)

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// feedDocument is one feed to publish: the site feed carries both RSS and
// Atom flavours, term feeds carry RSS only.
type feedDocument struct {
	Scope       string
	Title       string
	Description string
	Link        string
	Language    string
	RSSPath     string
	AtomPath    string
	RSSURL      string
	AtomURL     string
	Items       []feedItem
}

func buildFeedDocuments(cfg Config, resolver *urls.Resolver, buildCtx *BuildContext) []feedDocument {
	if buildCtx == nil || buildCtx.Model == nil {
		return nil
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}
	title := strings.TrimSpace(cfg.SiteTitle)
	if title == "" {
		title = baseURLWithFallback(cfg.BaseURL)
	}
	description := strings.TrimSpace(cfg.SiteDescription)
	if description == "" {
		description = "Latest posts"
	}

	var docs []feedDocument

	site := feedDocument{
		Scope:       "site",
		Title:       title,
		Description: description,
		Link:        absoluteURL(cfg.BaseURL, "/"),
		Language:    language,
		Items:       feedItems(buildCtx.Model.Posts, cfg.FeedLimit, buildCtx.GeneratedAt),
	}
	if rssRoute, err := resolver.SiteFeed(cfg.RSSFilename); err == nil {
		site.RSSPath = outputPath(rssRoute)
		site.RSSURL = resolver.Absolute(rssRoute)
	}
	if atomRoute, err := resolver.SiteFeed(cfg.AtomFilename); err == nil {
		site.AtomPath = outputPath(atomRoute)
		site.AtomURL = resolver.Absolute(atomRoute)
	}
	if len(site.Items) > 0 && site.RSSPath != "" {
		docs = append(docs, site)
	}

	if buildCtx.Taxonomies == nil {
		return docs
	}
	for _, tax := range buildCtx.Taxonomies.Taxonomies {
		if !tax.Feed {
			continue
		}
		for _, term := range tax.Terms {
			items := feedItems(term.Posts, cfg.FeedLimit, buildCtx.GeneratedAt)
			if len(items) == 0 {
				continue
			}
			route, err := resolver.TermFeed(tax.Name, term.Slug, cfg.RSSFilename)
			if err != nil {
				continue
			}
			docs = append(docs, feedDocument{
				Scope:       "term",
				Title:       fmt.Sprintf("%s (%s)", title, term.Name),
				Description: fmt.Sprintf("Posts in %s", term.Name),
				Link:        term.Permalink,
				Language:    language,
				RSSPath:     outputPath(route),
				RSSURL:      resolver.Absolute(route),
				Items:       items,
			})
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].RSSPath < docs[j].RSSPath
	})
	return docs
}

func feedItems(posts []*content.Post, limit int, generatedAt time.Time) []feedItem {
	if len(posts) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	items := make([]feedItem, 0, len(posts))
	seen := map[string]struct{}{}
	for _, post := range posts {
		guid := strings.TrimSpace(post.Permalink)
		if guid == "" {
			continue
		}
		if _, ok := seen[guid]; ok {
			continue
		}
		seen[guid] = struct{}{}

		itemTitle := strings.TrimSpace(post.Title)
		if itemTitle == "" {
			itemTitle = post.Route
		}

		publishedAt := firstNonZeroTime(post.Date, post.LastModified)
		if publishedAt.IsZero() {
			publishedAt = generatedAt
		}
		updatedAt := firstNonZeroTime(post.Updated, publishedAt)

		items = append(items, feedItem{
			Title:       itemTitle,
			Summary:     normalizeWhitespace(post.Summary),
			Link:        post.Permalink,
			GUID:        guid,
			PublishedAt: publishedAt,
			UpdatedAt:   updatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		left := items[i].PublishedAt
		right := items[j].PublishedAt
		if left.Equal(right) {
			return items[i].GUID < items[j].GUID
		}
		return left.After(right)
	})
	if len(items) > limit {
		items = append([]feedItem(nil), items[:limit]...)
	}
	return items
}

func (s *service) writeFeeds(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	docs []feedDocument,
	generatedAt time.Time,
) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return 0, err
		}
	}

	total := 0
	for _, doc := range docs {
		if len(doc.Items) == 0 || doc.RSSPath == "" {
			continue
		}
		rssContent := buildRSSFeed(doc, generatedAt)
		rssPath := joinOutputPath(baseDir, doc.RSSPath)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(rssPath)); err != nil {
			return total, err
		}
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:        rssPath,
			Content:     strings.NewReader(rssContent),
			Size:        int64(len(rssContent)),
			Category:    categoryFeed,
			ContentType: "application/rss+xml",
			Checksum:    computeHashFromString(rssContent),
			Metadata:    feedMetadata(doc.Scope, "rss", generatedAt),
		}); err != nil {
			return total, err
		}
		total++

		if doc.AtomPath == "" {
			continue
		}
		atomContent := buildAtomFeed(doc, generatedAt)
		atomPath := joinOutputPath(baseDir, doc.AtomPath)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(atomPath)); err != nil {
			return total, err
		}
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:        atomPath,
			Content:     strings.NewReader(atomContent),
			Size:        int64(len(atomContent)),
			Category:    categoryFeed,
			ContentType: "application/atom+xml",
			Checksum:    computeHashFromString(atomContent),
			Metadata:    feedMetadata(doc.Scope, "atom", generatedAt),
		}); err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}

func buildRSSFeed(doc feedDocument, generatedAt time.Time) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(doc.Link)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(doc.Description)))
	builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(doc.Language)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	for _, item := range doc.Items {
		pub := item.PublishedAt
		if pub.IsZero() {
			pub = generatedAt
		}
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", pub.UTC().Format(time.RFC1123Z)))
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func buildAtomFeed(doc feedDocument, generatedAt time.Time) string {
	feedID := doc.AtomURL
	if feedID == "" {
		feedID = doc.RSSURL
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXMLAttr(doc.Language)))
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(doc.Link)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID)))
	for _, item := range doc.Items {
		updated := item.UpdatedAt
		if updated.IsZero() {
			updated = item.PublishedAt
		}
		if updated.IsZero() {
			updated = generatedAt
		}
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func feedMetadata(scope, feedType string, generatedAt time.Time) map[string]string {
	return map[string]string{
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"feed_type":    feedType,
		"scope":        scope,
	}
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
