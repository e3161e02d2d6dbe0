package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/kerbaras/mangamirror/pkg/data"
)

// State is what a title root says about itself before a run.
type State struct {
	// Records is the persisted document, nil when it does not exist yet.
	Records        []data.ChapterRecord
	DocumentExists bool
	// Declared holds the indices with a record.
	Declared map[int]bool
	// OnDisk holds the indices with a chapter directory, record or not.
	OnDisk map[int]bool
}

// ReadState inspects a title root. It performs no network I/O.
func ReadState(p Paths) (*State, error) {
	records, exists, err := LoadRecords(p.ChaptersDoc)
	if err != nil {
		return nil, err
	}

	state := &State{
		Records:        records,
		DocumentExists: exists,
		Declared:       make(map[int]bool, len(records)),
		OnDisk:         make(map[int]bool),
	}
	for _, rec := range records {
		state.Declared[rec.Index] = true
	}

	entries, err := os.ReadDir(p.ChaptersDir)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, p.ChaptersDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		index, err := strconv.Atoi(entry.Name())
		if err != nil || index < 1 {
			// Not a chapter directory
			continue
		}
		state.OnDisk[index] = true
	}

	return state, nil
}
