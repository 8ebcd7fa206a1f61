package generator

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManifestRoundTrip(t *testing.T) {
	pageID := uuid.New()
	generated := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	manifest := newBuildManifest()
	manifest.GeneratedAt = generated
	manifest.setPage(manifestPage{
		ID:           pageID.String(),
		Route:        "/posts/hello/",
		Output:       "public/posts/hello/index.html",
		Template:     "post.html",
		Hash:         "hash-1",
		Checksum:     "sum-1",
		LastModified: generated.Add(-time.Hour),
		RenderedAt:   generated,
	})
	manifest.setAsset(manifestAsset{
		Key:      "theme::assets/css/site.css",
		Source:   "css/site.css",
		Output:   "public/assets/css/site.css",
		Checksum: "sum-css",
		Size:     42,
		CopiedAt: generated,
	})

	data, err := manifest.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.GeneratedAt.Equal(generated) {
		t.Fatalf("expected generated_at %v, got %v", generated, parsed.GeneratedAt)
	}
	if !parsed.shouldSkipPage(pageID, "hash-1", "public/posts/hello/index.html") {
		t.Fatal("expected page skip after round trip")
	}
	if parsed.shouldSkipPage(pageID, "hash-2", "public/posts/hello/index.html") {
		t.Fatal("expected hash mismatch to force rebuild")
	}
	if parsed.shouldSkipPage(pageID, "hash-1", "public/other/index.html") {
		t.Fatal("expected output mismatch to force rebuild")
	}
	if !parsed.shouldSkipAsset("theme::assets/css/site.css", "sum-css", "public/assets/css/site.css") {
		t.Fatal("expected asset skip after round trip")
	}
	if parsed.shouldSkipAsset("theme::assets/css/site.css", "sum-new", "public/assets/css/site.css") {
		t.Fatal("expected checksum mismatch to force copy")
	}
}

func TestManifestMarshalIsDeterministic(t *testing.T) {
	manifest := newBuildManifest()
	for _, route := range []string{"/zeta/", "/alpha/", "/mid/"} {
		manifest.setPage(manifestPage{
			ID:     uuid.New().String(),
			Route:  route,
			Output: "public" + route + "index.html",
			Hash:   "h",
		})
	}

	data, err := manifest.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	alpha := strings.Index(text, "/alpha/")
	mid := strings.Index(text, "/mid/")
	zeta := strings.Index(text, "/zeta/")
	if !(alpha < mid && mid < zeta) {
		t.Fatalf("expected routes sorted in output, got positions %d %d %d", alpha, mid, zeta)
	}
}

func TestManifestPrune(t *testing.T) {
	keepID := uuid.New()
	dropID := uuid.New()

	manifest := newBuildManifest()
	manifest.setPage(manifestPage{ID: keepID.String(), Route: "/keep/", Hash: "h"})
	manifest.setPage(manifestPage{ID: dropID.String(), Route: "/drop/", Hash: "h"})
	manifest.setAsset(manifestAsset{Key: "static::keep.css", Checksum: "c"})
	manifest.setAsset(manifestAsset{Key: "static::drop.css", Checksum: "c"})

	manifest.prunePages(map[string]struct{}{manifest.pageKey(keepID): {}})
	manifest.pruneAssets(map[string]struct{}{"static::keep.css": {}})

	if _, ok := manifest.lookupPage(keepID); !ok {
		t.Fatal("expected kept page to remain")
	}
	if _, ok := manifest.lookupPage(dropID); ok {
		t.Fatal("expected dropped page to be pruned")
	}
	if _, ok := manifest.lookupAsset("static::keep.css"); !ok {
		t.Fatal("expected kept asset to remain")
	}
	if _, ok := manifest.lookupAsset("static::drop.css"); ok {
		t.Fatal("expected dropped asset to be pruned")
	}

	// empty keep sets leave the manifest untouched
	manifest.prunePages(map[string]struct{}{})
	if _, ok := manifest.lookupPage(keepID); !ok {
		t.Fatal("expected empty prune to be a no-op")
	}
}

func TestParseManifestHandlesEmptyAndInvalid(t *testing.T) {
	manifest, err := parseManifest(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if manifest.Version != manifestFileVersion {
		t.Fatalf("expected default version, got %d", manifest.Version)
	}
	if manifest.Pages == nil || manifest.Assets == nil {
		t.Fatal("expected initialised maps")
	}

	if _, err := parseManifest([]byte("{not json")); err == nil {
		t.Fatal("expected parse error for malformed manifest")
	}
}
