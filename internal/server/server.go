// Package server runs the development server: it serves the built site,
// watches the source trees, rebuilds on change, and pushes live-reload
// events to connected browsers.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var ErrBuildRequired = errors.New("server: build function is required")

const (
	defaultAddr     = "127.0.0.1"
	defaultPort     = 8080
	defaultDebounce = 300 * time.Millisecond
	reloadPath      = "/__reload"
)

// BuildFunc rebuilds the site when watched files change.
type BuildFunc func(ctx context.Context) error

// Config tunes the development server.
type Config struct {
	Addr string
	Port int
	// OutputDir is the built site root served over HTTP.
	OutputDir string
	// WatchDirs are watched recursively; missing directories are skipped.
	WatchDirs []string
	// LiveReload injects a reload script into served HTML pages.
	LiveReload bool
	// RebuildDebounce coalesces bursts of file events into one rebuild.
	RebuildDebounce time.Duration
}

// Server is the development server. One instance serves one site.
type Server struct {
	cfg    Config
	build  BuildFunc
	logger interfaces.Logger

	buildMu   sync.Mutex
	clientsMu sync.Mutex
	clients   map[chan struct{}]struct{}
}

// New validates the configuration and builds a server.
func New(cfg Config, build BuildFunc, provider interfaces.LoggerProvider) (*Server, error) {
	if build == nil {
		return nil, ErrBuildRequired
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = "public"
	}
	if cfg.RebuildDebounce <= 0 {
		cfg.RebuildDebounce = defaultDebounce
	}

	return &Server{
		cfg:     cfg,
		build:   build,
		logger:  logging.ServerLogger(provider),
		clients: make(map[chan struct{}]struct{}),
	}, nil
}

// Addr reports the host:port the server binds.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Addr, strconv.Itoa(s.cfg.Port))
}

// Run builds the site, starts watching and serving, and blocks until ctx is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("server: initial build: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("server: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range s.cfg.WatchDirs {
		if err := watchDir(watcher, dir); err != nil {
			s.logger.Warn("not watching %s: %v", dir, err)
			continue
		}
		s.logger.Debug("watching %s", dir)
	}

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.watchLoop(egctx, watcher)
		return nil
	})
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	s.logger.Info("dev server running at http://%s", s.Addr())
	return eg.Wait()
}

func (s *Server) router() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)
	if s.cfg.LiveReload {
		r.Get(reloadPath, s.handleReload)
	}
	r.Handle("/*", http.HandlerFunc(s.serveSite))
	return r
}

func (s *Server) rebuild(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.build(ctx)
}

// watchLoop coalesces file events into debounced rebuilds. Newly created
// directories join the watch set so edits inside them keep triggering.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if isTransient(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDir(watcher, event.Name)
				}
			}

			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(s.cfg.RebuildDebounce, func() {
				s.logger.Info("change detected: %s", filepath.Base(name))
				if err := s.rebuild(ctx); err != nil {
					s.logger.Error("rebuild failed: %v", err)
					return
				}
				s.notifyClients()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error: %v", err)
		}
	}
}

// serveSite maps request paths onto the output directory. Directory requests
// without a trailing slash redirect so relative links keep resolving.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean(r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		clean = path.Join(clean, "index.html")
	}
	target := filepath.Join(s.cfg.OutputDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	info, err := os.Stat(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}

	if s.cfg.LiveReload && strings.HasSuffix(target, ".html") {
		page, err := os.ReadFile(target)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		_, _ = w.Write(injectReload(page))
		return
	}

	http.ServeFile(w, r, target)
}

// handleReload holds a Server-Sent Events stream open per browser tab and
// emits a reload event after each successful rebuild.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch := make(chan struct{}, 1)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, ch)
		s.clientsMu.Unlock()
		close(ch)
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) notifyClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
			// client still draining the previous event
		}
	}
}

// watchDir registers dir and every subdirectory, skipping hidden trees and
// node_modules.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); p != dir && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// isTransient filters editor droppings so saves do not rebuild twice.
func isTransient(base string) bool {
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

var reloadSnippet = []byte("<script>" + liveReloadScript + "</script>")

// injectReload places the reload script just before </body>, or appends it
// when a page has no closing body tag.
func injectReload(page []byte) []byte {
	if idx := bytes.LastIndex(page, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(page)+len(reloadSnippet))
		out = append(out, page[:idx]...)
		out = append(out, reloadSnippet...)
		out = append(out, page[idx:]...)
		return out
	}
	out := make([]byte, 0, len(page)+len(reloadSnippet))
	out = append(out, page...)
	return append(out, reloadSnippet...)
}

const liveReloadScript = `
;(function() {
  var es = new EventSource('` + reloadPath + `');
  es.onmessage = function(e) {
    if (e.data === 'reload') {
      window.location.reload();
    }
  };
  es.onerror = function() {
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
`
