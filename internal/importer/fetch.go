package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPError reports a non-success response from the source site.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("importer: HTTP %d for %s", e.StatusCode, e.URL)
}

// Page is the extracted result of fetching one URL.
type Page struct {
	URL         string
	Title       string
	Description string
	Author      string
	Published   time.Time
	// Markdown is the converted page body.
	Markdown string
}

// ContentHandler processes fetched responses. Handlers are consulted in
// registration order, most specific first; the last one is the HTML fallback.
type ContentHandler interface {
	CanHandle(url string, resp *http.Response) bool
	Handle(url string, resp *http.Response) (*Page, error)
}

// Fetcher retrieves a URL and routes the response through its handler chain.
type Fetcher struct {
	handlers  []ContentHandler
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given source-specific handlers and
// the HTML fallback registered last.
func NewFetcher(client *http.Client, userAgent string, handlers ...ContentHandler) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	f := &Fetcher{client: client, userAgent: userAgent}
	f.handlers = append(f.handlers, handlers...)
	f.handlers = append(f.handlers, &HTMLHandler{})
	return f
}

// AddHandler registers a handler ahead of the HTML fallback so specific
// sources keep winning.
func (f *Fetcher) AddHandler(handler ContentHandler) {
	if handler == nil {
		return
	}
	if n := len(f.handlers); n > 0 {
		fallback := f.handlers[n-1]
		f.handlers = append(f.handlers[:n-1], handler, fallback)
		return
	}
	f.handlers = append(f.handlers, handler)
}

// Fetch retrieves url and hands the response to the first matching handler.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("importer: build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("importer: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	for _, handler := range f.handlers {
		if handler.CanHandle(url, resp) {
			return handler.Handle(url, resp)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoHandler, url)
}

// HTMLHandler converts any HTML response into Markdown. It always accepts,
// making it the chain's fallback.
type HTMLHandler struct{}

func (h *HTMLHandler) CanHandle(string, *http.Response) bool { return true }

func (h *HTMLHandler) Handle(url string, resp *http.Response) (*Page, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("importer: read %s: %w", url, err)
	}
	return pageFromHTML(url, body)
}
