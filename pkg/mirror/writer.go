package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kerbaras/mangamirror/pkg/data"
)

// PageFiles lists the page file names of a chapter directory ordered by page
// position ("10.png" after "2.png"). Names are relative to dir. Files whose name does not start with a
// page number, such as name.txt, are skipped. A missing directory yields no
// pages.
func PageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, dir, err)
	}

	type page struct {
		pos  int
		name string
	}
	var pages []page
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		pos, ok := pagePosition(entry.Name())
		if !ok {
			continue
		}
		pages = append(pages, page{pos: pos, name: entry.Name()})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].pos < pages[j].pos
	})

	out := make([]string, len(pages))
	for i, pg := range pages {
		out[i] = pg.name
	}
	return out, nil
}

// CountPages returns the number of page files in a chapter directory.
func CountPages(dir string) (int, error) {
	pages, err := PageFiles(dir)
	return len(pages), err
}

func pagePosition(name string) (int, bool) {
	stem, ext, found := strings.Cut(name, ".")
	if !found || ext == "" {
		return 0, false
	}
	pos, err := strconv.Atoi(stem)
	if err != nil || pos < 0 {
		return 0, false
	}
	return pos, true
}

// WriteRecords rewrites the whole chapter document from the remote catalog,
// counting the pages actually present for every chapter. Records of chapters
// that vanished upstream are carried over unchanged: their directories stay
// on disk and must keep a record.
func WriteRecords(p Paths, remote []data.ChapterDescriptor, previous []data.ChapterRecord) ([]data.ChapterRecord, error) {
	records := make([]data.ChapterRecord, 0, len(remote))
	seen := make(map[int]bool, len(remote))

	for _, ch := range remote {
		count, err := CountPages(p.ChapterDir(ch.Index))
		if err != nil {
			return nil, err
		}
		records = append(records, data.ChapterRecord{
			Index:     ch.Index,
			Name:      ch.Name,
			PageCount: count,
		})
		seen[ch.Index] = true
	}

	for _, rec := range previous {
		if !seen[rec.Index] {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Index < records[j].Index
	})

	if err := writeJSONAtomic(p.ChaptersDoc, records); err != nil {
		return nil, err
	}
	return records, nil
}
