package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/mirror"
	"github.com/kerbaras/mangamirror/pkg/sources"
)

type EPubBuilder struct {
	outputDir string
}

func NewEPubBuilder(outputDir string) *EPubBuilder {
	return &EPubBuilder{outputDir: outputDir}
}

// Export compiles every recorded chapter of a mirrored title into a single
// EPub file. Only chapters present in chapters.json are included, so a
// partially downloaded chapter never ends up in the book.
func (p *EPubBuilder) Export(root mirror.Paths) (string, error) {
	title, err := mirror.LoadTitle(root)
	if err != nil {
		return "", err
	}

	records, _, err := mirror.LoadRecords(root.ChaptersDoc)
	if err != nil {
		return "", err
	}
	var chapters []data.ChapterRecord
	for _, rec := range records {
		if rec.PageCount > 0 {
			chapters = append(chapters, rec)
		}
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("no chapters to compile")
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := title.Name
	var meta sources.Metadata
	if mirror.HasMetadata(root) {
		if err := mirror.LoadMetadata(root, &meta); err != nil {
			return "", err
		}
		if preferred := meta.Title.Preferred(); preferred != "" {
			name = preferred
		}
	}
	if name == "" {
		name = fmt.Sprintf("MAL %d", title.MalID)
	}

	e, err := epub.NewEpub(name)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor("Mangapill")
	e.SetLang("en")
	if meta.Description != "" {
		e.SetDescription(meta.Description)
	}

	for i, chapter := range chapters {
		if err := p.addChapterToEPub(e, root, chapter, i == 0); err != nil {
			return "", fmt.Errorf("failed to add chapter %d: %w", chapter.Index, err)
		}
	}

	outputPath := filepath.Join(p.outputDir, sanitizeFilename(name)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}

	return outputPath, nil
}

// addChapterToEPub adds a single chapter's pages to the EPub. The first page
// of the first chapter doubles as the cover.
func (p *EPubBuilder) addChapterToEPub(e *epub.Epub, root mirror.Paths, chapter data.ChapterRecord, cover bool) error {
	dir := root.ChapterDir(chapter.Index)
	pages, err := mirror.PageFiles(dir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no images found in chapter directory")
	}

	chapterTitle := fmt.Sprintf("Chapter %d", chapter.Index)
	if chapter.Name != "" {
		chapterTitle = chapter.Name
	}

	var htmlContent strings.Builder
	htmlContent.WriteString(fmt.Sprintf("<h1>%s</h1>\n", chapterTitle))

	for i, page := range pages {
		internalName := fmt.Sprintf("c%04d-p%04d%s", chapter.Index, i, strings.ToLower(filepath.Ext(page)))
		internalPath, err := e.AddImage(filepath.Join(dir, page), internalName)
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", page, err)
		}

		if cover && i == 0 {
			e.SetCover(internalPath, "")
		}

		htmlContent.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	if _, err := e.AddSection(htmlContent.String(), chapterTitle, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}

	return nil
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}
