package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kerbaras/mangamirror/pkg/data"
)

// LoadRecords reads the chapter document. A missing document is not an
// error: it returns nil records and exists == false.
func LoadRecords(path string) (records []data.ChapterRecord, exists bool, err error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, path, err)
	}

	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, true, fmt.Errorf("%w: parse %s: %v", data.ErrMalformedState, path, err)
	}

	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		if rec.Index < 1 {
			return nil, true, fmt.Errorf("%w: %s: chapter index %d is not positive", data.ErrMalformedState, path, rec.Index)
		}
		if rec.PageCount < 0 {
			return nil, true, fmt.Errorf("%w: %s: chapter %d has negative page count", data.ErrMalformedState, path, rec.Index)
		}
		if seen[rec.Index] {
			return nil, true, fmt.Errorf("%w: %s: chapter %d declared twice", data.ErrMalformedState, path, rec.Index)
		}
		seen[rec.Index] = true
	}

	return records, true, nil
}

// SaveTitle persists the identifiers of a title.
func SaveTitle(p Paths, title *data.Title) error {
	return writeJSONAtomic(p.TitleFile, title)
}

// LoadTitle reads title.json from a title root.
func LoadTitle(p Paths) (*data.Title, error) {
	payload, err := os.ReadFile(p.TitleFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, p.TitleFile, err)
	}
	var title data.Title
	if err := json.Unmarshal(payload, &title); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", data.ErrMalformedState, p.TitleFile, err)
	}
	if title.MalID == 0 || title.SourceID == 0 {
		return nil, fmt.Errorf("%w: %s: missing identifiers", data.ErrMalformedState, p.TitleFile)
	}
	return &title, nil
}

// SaveMetadata stores the metadata document of a title.
func SaveMetadata(p Paths, doc any) error {
	return writeJSONAtomic(p.Metadata, doc)
}

// LoadMetadata decodes metadata.json into v.
func LoadMetadata(p Paths, v any) error {
	payload, err := os.ReadFile(p.Metadata)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", data.ErrLocalIO, p.Metadata, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", data.ErrMalformedState, p.Metadata, err)
	}
	return nil
}

// HasMetadata reports whether metadata.json is already present.
func HasMetadata(p Paths) bool {
	info, err := os.Stat(p.Metadata)
	return err == nil && info.Mode().IsRegular()
}

// writeJSONAtomic writes v as indented JSON through a temp file renamed into
// place, so a killed process never leaves a torn document.
func writeJSONAtomic(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	payload = append(payload, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", data.ErrLocalIO, filepath.Dir(path), err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", data.ErrLocalIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %v", data.ErrLocalIO, err)
	}
	return nil
}
