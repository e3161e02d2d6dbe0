package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/config"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/mirror"
	"github.com/kerbaras/mangamirror/pkg/sources"
	"github.com/kerbaras/mangamirror/pkg/utils"
	"github.com/rs/zerolog"
)

// MangaController wires the mirror, the catalog source and the library
// index from a resolved configuration.
type MangaController struct {
	Mirror   *Mirror
	Searcher sources.Searcher
	Repo     *data.Repository
	Progress *Progress
}

func NewMangaController(cfg *config.Config, logger zerolog.Logger) (*MangaController, error) {
	repo, err := data.NewDuckDBRepository(cfg.LibraryDB)
	if err != nil {
		return nil, err
	}

	clientOpts := cfg.ClientOptions()
	newClient := func() *resty.Client { return utils.NewClient(clientOpts) }

	catalog := sources.NewMangapill(newClient(), cfg.CatalogURL)
	progress := NewProgress(256)

	m := NewMirror(MirrorOptions{
		BaseDir:    cfg.BaseDir,
		Walker:     catalog,
		Lookup:     sources.NewAniList(newClient(), cfg.AniListURL),
		Compiler:   NewJobCompiler(catalog, cfg.ResolveDelay, logger, progress),
		Downloader: NewDownloader(cfg.Workers, newClient, logger, progress),
		Library:    repo,
		Progress:   progress,
		Logger:     logger,
	})

	return &MangaController{Mirror: m, Searcher: catalog, Repo: repo, Progress: progress}, nil
}

// SearchManga queries the catalog by title.
func (c *MangaController) SearchManga(ctx context.Context, query string) ([]sources.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query cannot be empty")
	}
	return c.Searcher.Search(ctx, query)
}

// TitleChapters returns a title with its chapter records. The library index
// answers first; titles it has never seen are read from their root.
func (c *MangaController) TitleChapters(malID int) (*data.Title, []data.ChapterRecord, error) {
	title, err := c.Repo.GetTitle(malID)
	if err != nil {
		return nil, nil, err
	}
	if title != nil {
		records, err := c.Repo.GetChapters(malID)
		return title, records, err
	}

	title, err = c.Mirror.Title(malID)
	if err != nil {
		return nil, nil, err
	}
	records, _, err := mirror.LoadRecords(c.Mirror.Paths(malID).ChaptersDoc)
	if err != nil {
		return nil, nil, err
	}
	return title, records, nil
}

// Close ends the progress stream and closes the library index.
func (c *MangaController) Close() error {
	c.Progress.Close()
	return c.Repo.Close()
}
