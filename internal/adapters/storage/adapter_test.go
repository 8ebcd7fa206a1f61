package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nathan-Furnal/blog/internal/adapters/storage"
	"github.com/Nathan-Furnal/blog/pkg/interfaces"
	blogstorage "github.com/Nathan-Furnal/blog/pkg/storage"
)

func TestFilesystemProviderWriteAndRead(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewFilesystemProvider(root, "")
	ctx := context.Background()

	body := "<html>hello</html>"
	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "posts/hello/index.html", strings.NewReader(body)); err != nil {
		t.Fatalf("write: %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "posts", "hello", "index.html"))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(onDisk) != body {
		t.Fatalf("unexpected file contents %q", onDisk)
	}

	rows, err := provider.Query(ctx, blogstorage.OpRead, "posts/hello/index.html")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rows == nil {
		t.Fatal("expected rows for existing file")
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("expected one row")
	}

	var data []byte
	if err := rows.Scan(&data); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if string(data) != body {
		t.Fatalf("unexpected scanned contents %q", data)
	}
	if rows.Next() {
		t.Fatal("expected a single row")
	}
}

func TestFilesystemProviderScanIntoString(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewFilesystemProvider(root, "")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "robots.txt", strings.NewReader("User-agent: *\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := provider.Query(ctx, blogstorage.OpRead, "robots.txt")
	if err != nil || rows == nil {
		t.Fatalf("query: rows=%v err=%v", rows, err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("expected one row")
	}

	var text string
	if err := rows.Scan(&text); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if text != "User-agent: *\n" {
		t.Fatalf("unexpected scanned text %q", text)
	}

	var unsupported int
	if err := rows.Scan(&unsupported); err == nil {
		t.Fatal("expected error for unsupported scan destination")
	}
}

func TestFilesystemProviderReadMissingFile(t *testing.T) {
	provider := storage.NewFilesystemProvider(t.TempDir(), "")

	rows, err := provider.Query(context.Background(), blogstorage.OpRead, "absent.json")
	if err != nil {
		t.Fatalf("query missing file: %v", err)
	}
	if rows != nil {
		t.Fatal("expected nil rows for missing file")
	}
}

func TestFilesystemProviderTrimsBasePrefix(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewFilesystemProvider(root, "public")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "public/about/index.html", strings.NewReader("about")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "about", "index.html")); err != nil {
		t.Fatalf("expected prefix-trimmed path on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "public")); !os.IsNotExist(err) {
		t.Fatalf("expected no duplicated public/ directory, got %v", err)
	}

	// A path equal to the base resolves to the root itself.
	if _, err := provider.Exec(ctx, blogstorage.OpEnsureDir, "public"); err != nil {
		t.Fatalf("ensure_dir: %v", err)
	}

	// Prefix matching is segment-aware: public-notes is not under public.
	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "public-notes/readme.txt", strings.NewReader("notes")); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "public-notes", "readme.txt")); err != nil {
		t.Fatalf("expected sibling dir kept intact: %v", err)
	}
}

func TestFilesystemProviderEnsureDirAndRemove(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewFilesystemProvider(root, "")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, blogstorage.OpEnsureDir, "public/tags/go"); err != nil {
		t.Fatalf("ensure_dir: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "public", "tags", "go"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory, err=%v", err)
	}

	if _, err := provider.Exec(ctx, blogstorage.OpRemove, "public"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "public")); !os.IsNotExist(err) {
		t.Fatalf("expected output removed, got %v", err)
	}

	// Removing an absent tree is not an error.
	if _, err := provider.Exec(ctx, blogstorage.OpRemove, "public"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestFilesystemProviderRejectsMalformedOps(t *testing.T) {
	provider := storage.NewFilesystemProvider(t.TempDir(), "")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "file.txt"); err == nil {
		t.Fatal("expected error for write without content")
	}
	if _, err := provider.Exec(ctx, blogstorage.OpWrite, "file.txt", 42); err == nil {
		t.Fatal("expected error for non-reader content")
	}
	if _, err := provider.Exec(ctx, blogstorage.OpEnsureDir); err == nil {
		t.Fatal("expected error for ensure_dir without path")
	}

	// Unknown operations are ignored so future ops stay backwards compatible.
	if _, err := provider.Exec(ctx, "generator.compact"); err != nil {
		t.Fatalf("unknown op: %v", err)
	}
}

func TestFilesystemProviderTransaction(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewFilesystemProvider(root, "")
	ctx := context.Background()

	err := provider.Transaction(ctx, func(tx interfaces.Transaction) error {
		if _, err := tx.Exec(ctx, blogstorage.OpWrite, "index.html", strings.NewReader("home")); err != nil {
			return err
		}
		if nested := tx.Transaction(ctx, func(interfaces.Transaction) error { return nil }); nested == nil {
			t.Fatal("expected nested transaction to be rejected")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		t.Fatalf("expected transactional write applied: %v", err)
	}
}
