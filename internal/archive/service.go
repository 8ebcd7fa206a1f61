// Package archive maintains an optional SQLite index of published posts so
// listings and search run without rebuilding the site.
package archive

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/logging"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the archive feature is disabled.
	ErrServiceDisabled = errors.New("archive: service disabled")
	ErrModelRequired   = errors.New("archive: content model is required")
	ErrQueryRequired   = errors.New("archive: search query is required")

	errDatabaseRequired = errors.New("archive: database is required")
	errPathRequired     = errors.New("archive: database path is required")
)

const defaultSearchLimit = 50

// Config controls the archive index.
type Config struct {
	// Path locates the SQLite database file.
	Path string
	// CacheTTL enables a read-through repository cache when positive.
	CacheTTL time.Duration
}

// Dependencies carries the service collaborators. Repository defaults to the
// bun repository over DB, cache-wrapped when Config.CacheTTL is positive.
type Dependencies struct {
	DB         *bun.DB
	Repository RecordRepository
	Logger     interfaces.LoggerProvider
}

// Service indexes published posts and answers list and search queries.
type Service interface {
	// Refresh reconciles the index with the posts of a freshly built model.
	Refresh(ctx context.Context, model *content.Model) (*RefreshResult, error)
	// List returns indexed posts newest first.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)
	// Search matches title and summary text, newest first.
	Search(ctx context.Context, query string, limit int) ([]*Record, error)
	// Close releases the underlying database.
	Close() error
}

// Option customises service construction.
type Option func(*service)

// WithNow overrides the clock used for built_at stamps.
func WithNow(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens, creating when missing, the SQLite database at path. Foreign
// keys are enabled and the pool is capped at one connection, matching how
// SQLite serialises writers.
func Open(path string) (*bun.DB, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errPathRequired
	}
	if dir := filepath.Dir(trimmed); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("archive: create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", "file:"+trimmed+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewService constructs the archive service.
func NewService(cfg Config, deps Dependencies, opts ...Option) (Service, error) {
	repo := deps.Repository
	if repo == nil {
		if deps.DB == nil {
			return nil, errDatabaseRequired
		}
		if cfg.CacheTTL > 0 {
			cacheSvc, serializer, err := newRecordCache(cfg.CacheTTL)
			if err != nil {
				return nil, fmt.Errorf("archive: cache service: %w", err)
			}
			repo = NewBunRecordRepositoryWithCache(deps.DB, cacheSvc, serializer)
		} else {
			repo = NewBunRecordRepository(deps.DB)
		}
	}

	svc := &service{
		cfg:    cfg,
		deps:   deps,
		repo:   repo,
		logger: logging.ArchiveLogger(deps.Logger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	repo   RecordRepository
	logger interfaces.Logger
	now    func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

type disabledService struct{}

// Refresh reconciles the stored records against the model's published posts:
// new posts are inserted, changed posts rewritten, vanished posts deleted.
// Records with an unchanged checksum and route keep their row, including its
// built_at. Drafts never enter the index, even when the model was loaded
// with drafts included; a previously published post that turned draft is
// dropped like any vanished post.
func (s *service) Refresh(ctx context.Context, model *content.Model) (*RefreshResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if model == nil {
		return nil, ErrModelRequired
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.List(ctx, ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("archive: list existing records: %w", err)
	}
	stale := make(map[uuid.UUID]*Record, len(existing))
	for _, record := range existing {
		stale[record.ID] = record
	}

	builtAt := s.now().UTC()
	result := &RefreshResult{}
	for _, post := range model.Posts {
		if post.Draft {
			continue
		}
		record := recordFromPost(post, builtAt)

		prev, ok := stale[record.ID]
		if !ok {
			if _, err := s.repo.Create(ctx, record); err != nil {
				return nil, fmt.Errorf("archive: index %s: %w", record.Route, err)
			}
			result.Created++
			continue
		}
		delete(stale, record.ID)

		if prev.Checksum == record.Checksum && prev.Route == record.Route {
			result.Kept++
			continue
		}
		if _, err := s.repo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("archive: reindex %s: %w", record.Route, err)
		}
		result.Updated++
	}

	for id, record := range stale {
		if err := s.repo.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("archive: drop %s: %w", record.Route, err)
		}
		result.Deleted++
	}

	if err := s.repo.InvalidateCache(ctx); err != nil {
		s.logger.Warn("archive cache invalidation failed: %v", err)
	}

	s.logger.Info("archive refreshed: %d created, %d updated, %d deleted, %d kept",
		result.Created, result.Updated, result.Deleted, result.Kept)

	return result, nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, opts)
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]*Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryRequired
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.repo.Search(ctx, query, limit)
}

func (s *service) Close() error {
	if s.deps.DB == nil {
		return nil
	}
	return s.deps.DB.Close()
}

// ensureSchema creates the records table on first use. A custom repository
// without a DB handle owns its schema instead.
func (s *service) ensureSchema(ctx context.Context) error {
	if s.deps.DB == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.deps.DB.NewCreateTable().
			Model((*Record)(nil)).
			IfNotExists().
			Exec(ctx)
	})
	if s.schemaErr != nil {
		return fmt.Errorf("archive: ensure schema: %w", s.schemaErr)
	}
	return nil
}

func recordFromPost(post *content.Post, builtAt time.Time) *Record {
	return &Record{
		ID:         post.ID,
		Route:      post.Route,
		Slug:       post.Slug,
		Title:      post.Title,
		Section:    post.Section,
		Date:       post.Date,
		Author:     post.Author,
		Summary:    post.Summary,
		Tags:       append([]string(nil), post.Tags...),
		Categories: append([]string(nil), post.Categories...),
		WordCount:  post.WordCount,
		Checksum:   hex.EncodeToString(post.Checksum),
		BuiltAt:    builtAt,
	}
}

func newRecordCache(ttl time.Duration) (cache.CacheService, cache.KeySerializer, error) {
	cfg := cache.DefaultConfig()
	cfg.TTL = ttl
	svc, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cache.NewDefaultKeySerializer(), nil
}

func (disabledService) Refresh(context.Context, *content.Model) (*RefreshResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) List(context.Context, ListOptions) ([]*Record, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Search(context.Context, string, int) ([]*Record, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Close() error { return nil }
