// Package mirror owns the on-disk side of a mirrored title: the directory
// layout, the persisted chapter document, reconciliation against a remote
// catalog, and the rewrite of the document after a run.
//
// A title root looks like:
//
//	<base>/<mal_id>/
//	    title.json        identifiers (MAL id, Mangapill id)
//	    metadata.json     AniList document
//	    chapters.json     []ChapterRecord
//	    chapters/<index>/<page>.<ext>
//	    chapters/<index>/name.txt
package mirror

import (
	"path/filepath"
	"strconv"
)

const (
	chaptersDirName = "chapters"
	chaptersDocName = "chapters.json"
	titleFileName   = "title.json"
	metadataName    = "metadata.json"
	lockName        = ".lock"
	nameFileName    = "name.txt"
)

// Paths resolves every location inside one title root.
type Paths struct {
	Root        string
	ChaptersDir string
	ChaptersDoc string
	TitleFile   string
	Metadata    string
	Lock        string
}

func NewPaths(base string, malID int) Paths {
	return PathsForRoot(filepath.Join(base, strconv.Itoa(malID)))
}

func PathsForRoot(root string) Paths {
	return Paths{
		Root:        root,
		ChaptersDir: filepath.Join(root, chaptersDirName),
		ChaptersDoc: filepath.Join(root, chaptersDocName),
		TitleFile:   filepath.Join(root, titleFileName),
		Metadata:    filepath.Join(root, metadataName),
		Lock:        filepath.Join(root, lockName),
	}
}

func (p Paths) ChapterDir(index int) string {
	return filepath.Join(p.ChaptersDir, strconv.Itoa(index))
}

// PagePath is the destination of a page without its extension.
func (p Paths) PagePath(index, page int) string {
	return filepath.Join(p.ChapterDir(index), strconv.Itoa(page))
}

func (p Paths) NameFile(index int) string {
	return filepath.Join(p.ChapterDir(index), nameFileName)
}
