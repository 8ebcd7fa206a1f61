package generator

import (
	"fmt"
	"html"
	"path"
	"strings"
)

// outputPath maps a pretty route to its on-disk file. Routes are directories
// holding an index.html except when they already name a file.
func outputPath(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		route = "/"
	}
	clean := strings.Trim(route, " \t\r\n/")
	if clean == "" {
		return "index.html"
	}
	if ext := path.Ext(clean); ext != "" && ext != "." {
		return clean
	}
	return path.Join(clean, "index.html")
}

// aliasStub is the meta-refresh page written at a retired route so old links
// and bookmarks keep resolving.
func aliasStub(target string) string {
	escaped := html.EscapeString(target)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"utf-8\">\n")
	b.WriteString(fmt.Sprintf("  <meta http-equiv=\"refresh\" content=\"0; url=%s\">\n", escaped))
	b.WriteString("  <meta name=\"robots\" content=\"noindex\">\n")
	b.WriteString(fmt.Sprintf("  <link rel=\"canonical\" href=\"%s\">\n", escaped))
	b.WriteString(fmt.Sprintf("  <title>Redirecting to %s</title>\n", escaped))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(fmt.Sprintf("  <p>This page has moved. <a href=\"%s\">Continue to the new location.</a></p>\n", escaped))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func baseURLWithFallback(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "http://localhost"
	}
	return base
}

// absoluteURL joins a site base URL with a rooted route.
func absoluteURL(baseURL, route string) string {
	base := baseURLWithFallback(baseURL)
	route = strings.TrimSpace(route)
	if route == "" || route == "/" {
		return base + "/"
	}
	if strings.HasPrefix(route, "http://") || strings.HasPrefix(route, "https://") {
		return route
	}
	return base + "/" + strings.TrimLeft(route, "/")
}
