package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	blogstorage "github.com/Nathan-Furnal/blog/pkg/storage"
)

// NewFilesystemProvider returns an interfaces.StorageProvider that maps
// generator operations onto a directory tree rooted at root. Incoming paths
// are slash separated and may carry the generator output dir as a prefix;
// pass that dir as base so the prefix is trimmed instead of duplicated on
// disk. An empty base leaves paths untouched, which is the right wiring when
// root is the site working directory.
func NewFilesystemProvider(root, base string) interfaces.StorageProvider {
	base = filepath.ToSlash(filepath.Clean(base))
	if base == "." {
		base = ""
	}
	return &filesystemProvider{root: root, base: base}
}

type filesystemProvider struct {
	root string
	base string
}

// Query answers read operations. Missing files yield nil rows rather than an
// error so callers can treat first runs and cleaned trees the same way.
func (p *filesystemProvider) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	if query != blogstorage.OpRead || len(args) == 0 {
		return nil, nil
	}
	target := p.normalizePath(args[0])
	data, err := os.ReadFile(p.abs(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileRows{data: data}, nil
}

func (p *filesystemProvider) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	switch query {
	case blogstorage.OpEnsureDir:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("storage: ensure_dir requires a path")
		}
		return emptyResult{}, os.MkdirAll(p.abs(p.normalizePath(args[0])), 0o755)
	case blogstorage.OpWrite:
		if len(args) < 2 {
			return emptyResult{}, fmt.Errorf("storage: write requires a path and content")
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, fmt.Errorf("storage: write expects io.Reader content, got %T", args[1])
		}
		return emptyResult{}, p.writeFile(p.normalizePath(args[0]), reader)
	case blogstorage.OpRemove:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("storage: remove requires a path")
		}
		err := os.RemoveAll(p.abs(p.normalizePath(args[0])))
		if errors.Is(err, os.ErrNotExist) {
			return emptyResult{}, nil
		}
		return emptyResult{}, err
	default:
		return emptyResult{}, nil
	}
}

// Transaction exists to satisfy the provider contract; filesystem writes are
// applied immediately, so the callback runs against the provider itself.
func (p *filesystemProvider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&filesystemTx{provider: p})
}

func (p *filesystemProvider) writeFile(rel string, content io.Reader) error {
	full := p.abs(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (p *filesystemProvider) abs(rel string) string {
	if rel == "" || rel == "." {
		return p.root
	}
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

func (p *filesystemProvider) normalizePath(arg any) string {
	path, _ := arg.(string)
	path = filepath.ToSlash(filepath.Clean(path))
	if p.base != "" {
		if path == p.base {
			return ""
		}
		if strings.HasPrefix(path, p.base+"/") {
			return strings.TrimPrefix(path, p.base+"/")
		}
	}
	return path
}

type filesystemTx struct {
	provider *filesystemProvider
}

func (tx *filesystemTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.provider.Query(ctx, query, args...)
}

func (tx *filesystemTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.provider.Exec(ctx, query, args...)
}

func (tx *filesystemTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("storage: nested transactions not supported")
}

func (tx *filesystemTx) Commit() error { return nil }

func (tx *filesystemTx) Rollback() error { return nil }

// fileRows adapts a single file read to the Rows contract: one row whose
// first destination receives the file contents.
type fileRows struct {
	data []byte
	read bool
}

func (r *fileRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("storage: scan requires a destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return fmt.Errorf("storage: unsupported scan destination %T", dest[0])
	}
	return nil
}

func (r *fileRows) Close() error { return nil }

type emptyResult struct{}

func (emptyResult) RowsAffected() (int64, error) { return 0, nil }

func (emptyResult) LastInsertId() (int64, error) { return 0, nil }
