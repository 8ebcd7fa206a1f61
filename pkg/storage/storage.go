package storage

import "context"

// Provider encapsulates the operations the blog runtime performs against a
// storage backend. The generator drives it with filesystem-shaped operations
// (ensure_dir, write, remove, read) but implementations are free to map those
// onto any medium (local disk, object stores, in-memory trees for tests).
type Provider interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
}

// Config captures the runtime configuration for a storage provider.
type Config struct {
	Name     string
	Driver   string
	Root     string
	ReadOnly bool
	Options  map[string]any
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

type Transaction interface {
	Provider
	Commit() error
	Rollback() error
}
