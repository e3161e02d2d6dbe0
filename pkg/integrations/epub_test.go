package integrations

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/mirror"
	"github.com/kerbaras/mangamirror/pkg/sources"
)

// setupTitle writes a mirrored title root with the given records and one
// page file per counted page.
func setupTitle(t *testing.T, name string, records []data.ChapterRecord) mirror.Paths {
	t.Helper()

	root := mirror.NewPaths(t.TempDir(), 21)
	if err := mirror.SaveTitle(root, &data.Title{MalID: 21, SourceID: 3, Name: name}); err != nil {
		t.Fatalf("Failed to save title: %v", err)
	}

	for _, rec := range records {
		dir := root.ChapterDir(rec.Index)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create chapter dir: %v", err)
		}
		for page := 0; page < rec.PageCount; page++ {
			createTestImage(t, dir, filepath.Base(root.PagePath(rec.Index, page))+".png")
		}
	}

	remote := make([]data.ChapterDescriptor, len(records))
	for i, rec := range records {
		remote[i] = data.ChapterDescriptor{Index: rec.Index, Name: rec.Name}
	}
	if _, err := mirror.WriteRecords(root, remote, nil); err != nil {
		t.Fatalf("Failed to write chapters.json: %v", err)
	}

	return root
}

func createTestImage(t *testing.T, dir string, filename string) {
	t.Helper()

	// Create a simple 1x1 PNG
	pngData := []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, // 1x1 dimensions
		0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
		0xDE, 0x00, 0x00, 0x00, 0x0C, 0x49, 0x44, 0x41, // IDAT chunk
		0x54, 0x08, 0x99, 0x63, 0xF8, 0x0F, 0x00, 0x00,
		0x01, 0x01, 0x00, 0x05, 0x18, 0x0D, 0xA3, 0xD2,
		0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, // IEND chunk
		0xAE, 0x42, 0x60, 0x82,
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, pngData, 0644); err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
}

func TestNewEPubBuilder(t *testing.T) {
	builder := NewEPubBuilder("/tmp/test")
	if builder == nil {
		t.Fatal("Expected builder to be created")
	}
	if builder.outputDir != "/tmp/test" {
		t.Errorf("Expected outputDir '/tmp/test', got '%s'", builder.outputDir)
	}
}

func TestExport(t *testing.T) {
	root := setupTitle(t, "Test Manga", []data.ChapterRecord{
		{Index: 1, Name: "Chapter 1", PageCount: 2},
		{Index: 2, Name: "Chapter 2", PageCount: 3},
	})
	outputDir := filepath.Join(t.TempDir(), "books")

	epubPath, err := NewEPubBuilder(outputDir).Export(root)
	if err != nil {
		t.Fatalf("Failed to create EPub: %v", err)
	}

	info, err := os.Stat(epubPath)
	if err != nil {
		t.Fatalf("EPub file was not created at %s", epubPath)
	}
	if info.Size() == 0 {
		t.Error("EPub file is empty")
	}
	if filepath.Dir(epubPath) != outputDir {
		t.Errorf("Expected EPub in %s, got %s", outputDir, filepath.Dir(epubPath))
	}
	if filepath.Base(epubPath) != "Test Manga.epub" {
		t.Errorf("Expected filename 'Test Manga.epub', got '%s'", filepath.Base(epubPath))
	}
}

// bookImages maps the base name of every image inside an EPUB to its content.
func bookImages(t *testing.T, epubPath string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(epubPath)
	if err != nil {
		t.Fatalf("Failed to open EPub: %v", err)
	}
	defer r.Close()

	images := make(map[string][]byte)
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".png") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read %s: %v", f.Name, err)
		}
		images[filepath.Base(f.Name)] = content
	}
	return images
}

func TestExportEmbedsPagesInOrder(t *testing.T) {
	root := setupTitle(t, "Ordered", []data.ChapterRecord{
		{Index: 1, Name: "Chapter 1", PageCount: 12},
		{Index: 2, Name: "Chapter 2", PageCount: 1},
	})
	for page := 0; page < 12; page++ {
		path := root.PagePath(1, page) + ".png"
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			t.Fatal(err)
		}
		fmt.Fprintf(f, "page %d", page)
		f.Close()
	}

	epubPath, err := NewEPubBuilder(t.TempDir()).Export(root)
	if err != nil {
		t.Fatalf("Failed to create EPub: %v", err)
	}

	images := bookImages(t, epubPath)
	if len(images) != 13 {
		t.Fatalf("Expected 13 images in the book, got %d", len(images))
	}
	for page := 0; page < 12; page++ {
		name := fmt.Sprintf("c0001-p%04d.png", page)
		content, ok := images[name]
		if !ok {
			t.Errorf("Missing image %s", name)
			continue
		}
		if !bytes.HasSuffix(content, []byte(fmt.Sprintf("page %d", page))) {
			t.Errorf("Image %s does not hold page %d", name, page)
		}
	}
	if _, ok := images["c0002-p0000.png"]; !ok {
		t.Error("Missing first page of chapter 2")
	}
}

func TestExportPrefersMetadataTitle(t *testing.T) {
	root := setupTitle(t, "", []data.ChapterRecord{{Index: 1, Name: "Chapter 1", PageCount: 1}})
	meta := &sources.Metadata{
		MalID:       21,
		Title:       sources.Titles{Romaji: "Wan Pīsu", English: "One: Piece"},
		Description: "Pirates.",
	}
	if err := mirror.SaveMetadata(root, meta); err != nil {
		t.Fatalf("Failed to save metadata: %v", err)
	}

	epubPath, err := NewEPubBuilder(t.TempDir()).Export(root)
	if err != nil {
		t.Fatalf("Failed to create EPub: %v", err)
	}
	if filepath.Base(epubPath) != "One_ Piece.epub" {
		t.Errorf("Expected sanitized metadata title, got '%s'", filepath.Base(epubPath))
	}
}

func TestExportSkipsEmptyChapters(t *testing.T) {
	root := setupTitle(t, "Partial", []data.ChapterRecord{
		{Index: 1, Name: "Chapter 1", PageCount: 1},
		{Index: 2, Name: "Chapter 2", PageCount: 0},
	})

	if _, err := NewEPubBuilder(t.TempDir()).Export(root); err != nil {
		t.Fatalf("Failed to create EPub: %v", err)
	}
}

func TestExportNoChapters(t *testing.T) {
	root := setupTitle(t, "Empty Manga", nil)

	if _, err := NewEPubBuilder(t.TempDir()).Export(root); err == nil {
		t.Error("Expected error when creating EPub with no chapters")
	}
}

func TestExportMissingTitle(t *testing.T) {
	root := mirror.NewPaths(t.TempDir(), 5)

	if _, err := NewEPubBuilder(t.TempDir()).Export(root); err == nil {
		t.Error("Expected error for a root without title.json")
	}
}

func TestExportMissingPages(t *testing.T) {
	root := setupTitle(t, "Broken", []data.ChapterRecord{{Index: 1, Name: "Chapter 1", PageCount: 1}})
	if err := os.RemoveAll(root.ChapterDir(1)); err != nil {
		t.Fatal(err)
	}

	if _, err := NewEPubBuilder(t.TempDir()).Export(root); err == nil {
		t.Error("Expected error when a recorded chapter has no pages")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Normal Title", "Normal Title"},
		{"Title/With/Slashes", "Title_With_Slashes"},
		{"Title\\With\\Backslashes", "Title_With_Backslashes"},
		{"Title:With:Colons", "Title_With_Colons"},
		{"Title*With?Special<Chars>", "Title_With_Special_Chars_"},
		{"  Spaces Around  ", "Spaces Around"},
		{".Hidden File.", "Hidden File"},
	}

	for _, tt := range tests {
		result := sanitizeFilename(tt.input)
		if result != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
