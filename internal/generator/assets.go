package generator

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type assetCopySummary struct {
	Built   int
	Skipped int
}

// assetSource is one directory whose files are copied into the output tree.
// prefix places theme assets under assets/ while static files land at the
// output root.
type assetSource struct {
	name   string
	dir    string
	prefix string
}

func (s *service) assetSources() []assetSource {
	var sources []assetSource
	if dir := strings.TrimSpace(s.cfg.StaticDir); dir != "" {
		sources = append(sources, assetSource{name: "static", dir: dir})
	}
	if s.deps.Themes != nil {
		if dir := strings.TrimSpace(s.deps.Themes.AssetsDir()); dir != "" {
			sources = append(sources, assetSource{name: "theme", dir: dir, prefix: "assets"})
		}
	}
	return sources
}

func (s *service) copyAssets(
	ctx context.Context,
	writer artifactWriter,
	manifest *buildManifest,
	baseDir string,
	force bool,
) (assetCopySummary, map[string]struct{}, error) {
	summary := assetCopySummary{}
	keys := map[string]struct{}{}

	sources := s.assetSources()
	if len(sources) == 0 {
		return summary, keys, nil
	}

	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, keys, err
		}
	}

	for _, source := range sources {
		if err := s.copySourceAssets(ctx, writer, manifest, baseDir, source, force, dirCache, keys, &summary); err != nil {
			return summary, keys, err
		}
	}
	return summary, keys, nil
}

func (s *service) copySourceAssets(
	ctx context.Context,
	writer artifactWriter,
	manifest *buildManifest,
	baseDir string,
	source assetSource,
	force bool,
	dirCache map[string]struct{},
	keys map[string]struct{},
	summary *assetCopySummary,
) error {
	info, err := os.Stat(source.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(source.dir, func(fsPath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := entry.Name()
		if entry.IsDir() {
			if fsPath != source.dir && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(source.dir, fsPath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		destRel := path.Join(source.prefix, rel)
		key := source.name + "::" + destRel
		keys[key] = struct{}{}

		data, err := os.ReadFile(fsPath)
		if err != nil {
			return err
		}
		checksum := computeHash(data)
		fullPath := joinOutputPath(baseDir, destRel)

		if s.cfg.Incremental && !force && manifest != nil && manifest.shouldSkipAsset(key, checksum, fullPath) {
			summary.Skipped++
			return nil
		}

		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(destRel),
			Checksum:    checksum,
			Metadata: map[string]string{
				"source": source.name,
				"asset":  rel,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
		summary.Built++

		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Key:      key,
				Source:   rel,
				Output:   fullPath,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now(),
			})
		}
		return nil
	})
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "xml":
		return "application/xml"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "txt":
		return "text/plain; charset=utf-8"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
