package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	manifestFileName    = ".blog-manifest.json"
	manifestFileVersion = 1
)

// buildManifest stores metadata about the last successful build to support
// incremental runs and stale-output pruning.
type buildManifest struct {
	Version     int
	GeneratedAt time.Time
	Pages       map[string]manifestPage
	Assets      map[string]manifestAsset
}

type manifestPage struct {
	ID           string    `json:"id"`
	Route        string    `json:"route"`
	Output       string    `json:"output"`
	Template     string    `json:"template"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Key      string    `json:"key"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

// orderedManifest is the on-disk shape: sorted slices instead of maps so
// consecutive builds produce diffable output.
type orderedManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Pages       []manifestPage  `json:"pages"`
	Assets      []manifestAsset `json:"assets"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
		Assets:  map[string]manifestAsset{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var ordered orderedManifest
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	if ordered.Version != 0 {
		manifest.Version = ordered.Version
	}
	manifest.GeneratedAt = ordered.GeneratedAt
	for _, entry := range ordered.Pages {
		manifest.setPage(entry)
	}
	for _, entry := range ordered.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	if len(m.Pages) > 0 {
		ordered.Pages = make([]manifestPage, 0, len(m.Pages))
		for _, entry := range m.Pages {
			ordered.Pages = append(ordered.Pages, entry)
		}
		sort.Slice(ordered.Pages, func(i, j int) bool {
			if ordered.Pages[i].Route == ordered.Pages[j].Route {
				return ordered.Pages[i].ID < ordered.Pages[j].ID
			}
			return ordered.Pages[i].Route < ordered.Pages[j].Route
		})
	}
	if len(m.Assets) > 0 {
		ordered.Assets = make([]manifestAsset, 0, len(m.Assets))
		for _, entry := range m.Assets {
			ordered.Assets = append(ordered.Assets, entry)
		}
		sort.Slice(ordered.Assets, func(i, j int) bool {
			return ordered.Assets[i].Key < ordered.Assets[j].Key
		})
	}
	return json.MarshalIndent(ordered, "", "  ")
}

func (m *buildManifest) pageKey(pageID uuid.UUID) string {
	return strings.ToLower(pageID.String())
}

func (m *buildManifest) lookupPage(pageID uuid.UUID) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[m.pageKey(pageID)]
	return entry, ok
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m == nil {
		return
	}
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	key := strings.ToLower(strings.TrimSpace(entry.ID))
	if key == "" {
		return
	}
	m.Pages[key] = entry
}

func (m *buildManifest) shouldSkipPage(pageID uuid.UUID, hash, output string) bool {
	if hash == "" {
		return false
	}
	entry, ok := m.lookupPage(pageID)
	if !ok {
		return false
	}
	if entry.Hash != hash {
		return false
	}
	if strings.TrimSpace(entry.Output) != strings.TrimSpace(output) {
		return false
	}
	return true
}

func (m *buildManifest) lookupAsset(key string) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[key]
	return entry, ok
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m == nil {
		return
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	if strings.TrimSpace(entry.Key) == "" {
		return
	}
	m.Assets[entry.Key] = entry
}

func (m *buildManifest) shouldSkipAsset(key, checksum, output string) bool {
	if checksum == "" {
		return false
	}
	entry, ok := m.lookupAsset(key)
	if !ok {
		return false
	}
	if entry.Checksum != checksum {
		return false
	}
	if strings.TrimSpace(entry.Output) != strings.TrimSpace(output) {
		return false
	}
	return true
}

func (m *buildManifest) prunePages(keys map[string]struct{}) {
	if len(keys) == 0 || len(m.Pages) == 0 {
		return
	}
	for key := range m.Pages {
		if _, ok := keys[key]; !ok {
			delete(m.Pages, key)
		}
	}
}

func (m *buildManifest) pruneAssets(keys map[string]struct{}) {
	if len(keys) == 0 || len(m.Assets) == 0 {
		return
	}
	for key := range m.Assets {
		if _, ok := keys[key]; !ok {
			delete(m.Assets, key)
		}
	}
}
