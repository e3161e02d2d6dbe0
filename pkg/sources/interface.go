package sources

import (
	"context"

	"github.com/kerbaras/mangamirror/pkg/data"
)

// CatalogWalker lists the chapters of a title, oldest first, indexed 1..N.
type CatalogWalker interface {
	Discover(ctx context.Context, sourceID int) ([]data.ChapterDescriptor, error)
}

// PageResolver lists the page image locators of a chapter in reading order.
type PageResolver interface {
	ResolvePages(ctx context.Context, chapterURL string) ([]string, error)
}

// MetadataLookup resolves a MyAnimeList id to a descriptive document.
type MetadataLookup interface {
	Lookup(ctx context.Context, malID int) (*Metadata, error)
}

// Searcher finds titles on the catalog site.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

type SearchResult struct {
	ID   int
	Name string
}
