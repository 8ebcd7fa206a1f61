package archive

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record is one published post as seen by the last successful build. IDs are
// the deterministic post UUIDs, so a post keeps its row across rebuilds and
// renames of title or route.
type Record struct {
	bun.BaseModel `bun:"table:archive_posts,alias:ap"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Route      string    `bun:"route,notnull,unique" json:"route"`
	Slug       string    `bun:"slug,notnull" json:"slug"`
	Title      string    `bun:"title,notnull" json:"title"`
	Section    string    `bun:"section,notnull" json:"section"`
	Date       time.Time `bun:"date,nullzero" json:"date,omitempty"`
	Author     string    `bun:"author" json:"author,omitempty"`
	Summary    string    `bun:"summary" json:"summary,omitempty"`
	Tags       []string  `bun:"tags,type:jsonb,nullzero" json:"tags,omitempty"`
	Categories []string  `bun:"categories,type:jsonb,nullzero" json:"categories,omitempty"`
	WordCount  int       `bun:"word_count,notnull,default:0" json:"word_count"`
	Checksum   string    `bun:"checksum,notnull" json:"checksum"`
	BuiltAt    time.Time `bun:"built_at,nullzero" json:"built_at"`
}

// ListOptions filter and page the archive listing.
type ListOptions struct {
	Section string
	Limit   int
	Offset  int
}

// RefreshResult summarizes one index refresh.
type RefreshResult struct {
	Created int
	Updated int
	Deleted int
	Kept    int
}

// Total returns the number of records the index holds after the refresh.
func (r RefreshResult) Total() int {
	return r.Created + r.Updated + r.Kept
}
