package archive

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordRepository exposes the persistence operations the archive service
// performs on post records.
type RecordRepository interface {
	Create(ctx context.Context, record *Record) (*Record, error)
	Update(ctx context.Context, record *Record) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByRoute(ctx context.Context, route string) (*Record, error)
	List(ctx context.Context, opts ListOptions) ([]*Record, error)
	Search(ctx context.Context, query string, limit int) ([]*Record, error)
	InvalidateCache(ctx context.Context) error
}

// NotFoundError is returned when an archive record cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// newRecordRepository creates the generic repository for archive records. The
// route doubles as the natural identifier since it is unique per post.
func newRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord:          func() *Record { return &Record{} },
		GetID:              func(record *Record) uuid.UUID { return record.ID },
		SetID:              func(record *Record, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "route" },
		GetIdentifierValue: func(record *Record) string { return record.Route },
	})
}

// BunRecordRepository implements RecordRepository with optional caching.
type BunRecordRepository struct {
	repo         repository.Repository[*Record]
	cacheService cache.CacheService
	cachePrefix  string
}

const recordNamespace = "archive_post"

// NewBunRecordRepository creates a record repository without caching.
func NewBunRecordRepository(db *bun.DB) *BunRecordRepository {
	return NewBunRecordRepositoryWithCache(db, nil, nil)
}

// NewBunRecordRepositoryWithCache creates a record repository with a
// read-through cache in front of the database.
func NewBunRecordRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRecordRepository {
	base := newRecordRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = recordNamespace + cache.KeySeparator
	}
	return &BunRecordRepository{
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
	}
}

func (r *BunRecordRepository) Create(ctx context.Context, record *Record) (*Record, error) {
	stored, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *BunRecordRepository) Update(ctx context.Context, record *Record) (*Record, error) {
	stored, err := r.repo.Update(ctx, record)
	if err != nil {
		return nil, mapRepositoryError(err, "archive record", record.Route)
	}
	return stored, nil
}

func (r *BunRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.repo.Delete(ctx, &Record{ID: id})
}

func (r *BunRecordRepository) GetByRoute(ctx context.Context, route string) (*Record, error) {
	record, err := r.repo.GetByIdentifier(ctx, route)
	if err != nil {
		return nil, mapRepositoryError(err, "archive record", route)
	}
	return record, nil
}

// List returns records newest first, optionally filtered by section.
func (r *BunRecordRepository) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	section := strings.TrimSpace(opts.Section)
	selection := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		if section != "" {
			q = q.Where("?TableAlias.section = ?", section)
		}
		return q.OrderExpr("?TableAlias.date DESC, ?TableAlias.slug ASC")
	})

	if opts.Limit > 0 {
		records, _, err := r.repo.List(ctx, selection, repository.SelectPaginate(opts.Limit, opts.Offset))
		return records, err
	}
	records, _, err := r.repo.List(ctx, selection)
	return records, err
}

// Search matches the query case-insensitively against titles and summaries,
// newest first.
func (r *BunRecordRepository) Search(ctx context.Context, query string, limit int) ([]*Record, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	selection := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("(LOWER(?TableAlias.title) LIKE ? OR LOWER(?TableAlias.summary) LIKE ?)", pattern, pattern).
			OrderExpr("?TableAlias.date DESC, ?TableAlias.slug ASC")
	})

	if limit > 0 {
		records, _, err := r.repo.List(ctx, selection, repository.SelectPaginate(limit, 0))
		return records, err
	}
	records, _, err := r.repo.List(ctx, selection)
	return records, err
}

// InvalidateCache drops every cached archive entry. Refreshes call it so list
// results never outlive the rows they came from.
func (r *BunRecordRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
