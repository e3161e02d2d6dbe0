package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/mirror"
	"github.com/kerbaras/mangamirror/pkg/sources"
	"github.com/rs/zerolog"
)

// Library is the index of mirrored titles kept next to the mirror.
type Library interface {
	SaveTitle(title *data.Title) error
	ReplaceChapters(malID int, records []data.ChapterRecord) error
}

// Report describes one completed fetch.
type Report struct {
	Title      data.Title
	Discovered int
	Missing    []int
	Jobs       int
	Records    []data.ChapterRecord
}

// AddReport describes one completed add.
type AddReport struct {
	Title           data.Title
	Chapters        int
	MetadataFetched bool
}

type MirrorOptions struct {
	BaseDir    string
	Walker     sources.CatalogWalker
	Lookup     sources.MetadataLookup
	Compiler   *JobCompiler
	Downloader *Downloader
	Library    Library // optional
	Progress   *Progress
	Logger     zerolog.Logger
}

// Mirror runs the fetch pipeline for titles under one base directory.
type Mirror struct {
	base       string
	walker     sources.CatalogWalker
	lookup     sources.MetadataLookup
	compiler   *JobCompiler
	downloader *Downloader
	library    Library
	progress   *Progress
	logger     zerolog.Logger
}

func NewMirror(opts MirrorOptions) *Mirror {
	return &Mirror{
		base:       opts.BaseDir,
		walker:     opts.Walker,
		lookup:     opts.Lookup,
		compiler:   opts.Compiler,
		downloader: opts.Downloader,
		library:    opts.Library,
		progress:   opts.Progress,
		logger:     opts.Logger,
	}
}

// Fetch brings one title up to date with the catalog: discover, reconcile
// against the local document, download what is missing, rewrite the
// document. Any error aborts the run and leaves chapters.json untouched.
func (m *Mirror) Fetch(ctx context.Context, title *data.Title) (*Report, error) {
	paths := mirror.NewPaths(m.base, title.MalID)
	logger := m.logger.With().Int("mal_id", title.MalID).Logger()

	unlock, err := lockTitle(paths)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m.progress.send(DownloadProgress{MalID: title.MalID, Status: StatusTitle})

	report, err := m.fetch(ctx, paths, title, logger)
	if err != nil {
		m.progress.send(DownloadProgress{MalID: title.MalID, Status: StatusError, Error: err})
		m.markError(title, logger)
		return nil, err
	}

	m.progress.send(DownloadProgress{MalID: title.MalID, Completed: report.Jobs, Total: report.Jobs, Status: StatusComplete})
	return report, nil
}

func (m *Mirror) fetch(ctx context.Context, paths mirror.Paths, title *data.Title, logger zerolog.Logger) (*Report, error) {
	remote, err := m.walker.Discover(ctx, title.SourceID)
	if err != nil {
		return nil, fmt.Errorf("discover %d: %w", title.SourceID, err)
	}
	if err := mirror.ValidateCatalog(remote); err != nil {
		return nil, err
	}

	state, err := mirror.ReadState(paths)
	if err != nil {
		return nil, err
	}

	missing := mirror.Reconcile(remote, state.Declared)
	if err := mirror.CheckConsistency(paths, missing, state.OnDisk); err != nil {
		return nil, err
	}
	logger.Info().
		Int("discovered", len(remote)).
		Int("declared", len(state.Declared)).
		Int("missing", len(missing)).
		Msg("reconciled catalog")

	jobs, err := m.compiler.Compile(ctx, paths, remote, missing)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("jobs", len(jobs)).Msg("queued page jobs")

	if err := m.downloader.Run(ctx, jobs); err != nil {
		return nil, err
	}

	records, err := mirror.WriteRecords(paths, remote, state.Records)
	if err != nil {
		return nil, err
	}

	if m.library != nil {
		title.Status = "mirrored"
		if err := m.library.SaveTitle(title); err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		if err := m.library.ReplaceChapters(title.MalID, records); err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
	}

	logger.Info().Int("chapters", len(records)).Msg("fetch done")
	return &Report{
		Title:      *title,
		Discovered: len(remote),
		Missing:    missing,
		Jobs:       len(jobs),
		Records:    records,
	}, nil
}

func (m *Mirror) markError(title *data.Title, logger zerolog.Logger) {
	if m.library == nil {
		return
	}
	title.Status = "error"
	if err := m.library.SaveTitle(title); err != nil {
		logger.Warn().Err(err).Msg("could not record failed fetch")
	}
}

// AddTitle registers a title under the base directory: metadata.json is
// looked up once, the catalog is walked to check the source id, and the
// identifiers are written to title.json.
func (m *Mirror) AddTitle(ctx context.Context, malID, sourceID int) (*AddReport, error) {
	if malID < 1 || sourceID < 1 {
		return nil, fmt.Errorf("invalid ids: mal %d, source %d", malID, sourceID)
	}
	paths := mirror.NewPaths(m.base, malID)

	unlock, err := lockTitle(paths)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &AddReport{Title: data.Title{MalID: malID, SourceID: sourceID, Status: "added"}}

	var meta sources.Metadata
	if mirror.HasMetadata(paths) {
		if err := mirror.LoadMetadata(paths, &meta); err != nil {
			return nil, err
		}
	} else {
		fetched, err := m.lookup.Lookup(ctx, malID)
		if err != nil {
			return nil, fmt.Errorf("metadata %d: %w", malID, err)
		}
		if err := mirror.SaveMetadata(paths, fetched); err != nil {
			return nil, err
		}
		meta = *fetched
		report.MetadataFetched = true
	}
	report.Title.Name = meta.Title.Preferred()

	remote, err := m.walker.Discover(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("discover %d: %w", sourceID, err)
	}
	if err := mirror.ValidateCatalog(remote); err != nil {
		return nil, err
	}
	report.Chapters = len(remote)

	if err := mirror.SaveTitle(paths, &report.Title); err != nil {
		return nil, err
	}
	if m.library != nil {
		if err := m.library.SaveTitle(&report.Title); err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
	}

	m.logger.Info().Int("mal_id", malID).Int("chapters", report.Chapters).Msg("title added")
	return report, nil
}

// Titles lists every title root under the base directory that holds a
// title.json, in ascending MAL id order.
func (m *Mirror) Titles() ([]*data.Title, error) {
	entries, err := os.ReadDir(m.base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, m.base, err)
	}

	var ids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil || id < 1 {
			continue
		}
		if _, err := os.Stat(mirror.NewPaths(m.base, id).TitleFile); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	titles := make([]*data.Title, 0, len(ids))
	for _, id := range ids {
		title, err := mirror.LoadTitle(mirror.NewPaths(m.base, id))
		if err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// FetchAll fetches every added title in ascending order and stops at the
// first error.
func (m *Mirror) FetchAll(ctx context.Context) ([]*Report, error) {
	titles, err := m.Titles()
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(titles))
	for _, title := range titles {
		report, err := m.Fetch(ctx, title)
		if err != nil {
			return reports, fmt.Errorf("title %d: %w", title.MalID, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Title loads the identifiers of one added title.
func (m *Mirror) Title(malID int) (*data.Title, error) {
	return mirror.LoadTitle(mirror.NewPaths(m.base, malID))
}

// Paths resolves the root of one title.
func (m *Mirror) Paths(malID int) mirror.Paths {
	return mirror.NewPaths(m.base, malID)
}

func lockTitle(paths mirror.Paths) (func(), error) {
	if err := os.MkdirAll(paths.Root, 0755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", data.ErrLocalIO, paths.Root, err)
	}
	lock := flock.New(paths.Lock)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", data.ErrLocalIO, paths.Lock, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", data.ErrTitleLocked, paths.Root)
	}
	return func() { lock.Unlock() }, nil
}
