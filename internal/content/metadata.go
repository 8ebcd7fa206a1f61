package content

import (
	"regexp"
	"strings"
)

// DefaultExcerptSeparator splits a summary from the body when the author
// marks one explicitly.
const DefaultExcerptSeparator = "<!--more-->"

const wordsPerMinute = 200

var (
	codeFencePattern  = regexp.MustCompile("(?s)```.*?```")
	imagePattern      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	headingPattern    = regexp.MustCompile(`(?m)^#{1,6}[ \t].*$`)
	blockquotePattern = regexp.MustCompile(`(?m)^>[ \t]*`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	emphasisReplacer  = strings.NewReplacer("**", "", "__", "", "*", "")
	spacePattern      = regexp.MustCompile(`[ \t]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Summarize derives a plain-text summary from a Markdown body. An explicit
// excerpt separator wins; otherwise the first paragraph is used.
func Summarize(body []byte, separator string) string {
	text := string(body)
	if strings.TrimSpace(separator) == "" {
		separator = DefaultExcerptSeparator
	}
	if idx := strings.Index(text, separator); idx >= 0 {
		excerpt := plainText(text[:idx])
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(excerpt, " "))
	}
	return firstParagraph(plainText(text))
}

// plainText strips Markdown and HTML syntax, leaving readable prose. Heading
// lines drop out entirely so a leading title never masquerades as the first
// paragraph.
func plainText(markdown string) string {
	text := codeFencePattern.ReplaceAllString(markdown, " ")
	text = imagePattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = blockquotePattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = emphasisReplacer.Replace(text)
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func firstParagraph(text string) string {
	for _, block := range strings.Split(text, "\n\n") {
		paragraph := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if paragraph != "" {
			return paragraph
		}
	}
	return ""
}

// CountWords reports the number of prose words in a Markdown body.
func CountWords(body []byte) int {
	return len(strings.Fields(plainText(string(body))))
}

// EstimateReadingTime converts a word count into whole minutes, rounding up.
// Empty bodies read in zero minutes.
func EstimateReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
