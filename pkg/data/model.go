package data

// Title is one mirrored series, keyed by its MyAnimeList id.
type Title struct {
	MalID    int    `json:"mal_id"`
	SourceID int    `json:"mangapill_id"`
	Name     string `json:"name,omitempty"`
	Status   string `json:"-"` // "added", "mirrored", "error"
}

// ChapterDescriptor is one chapter as reported by the catalog walker.
type ChapterDescriptor struct {
	Index int
	Name  string
	URL   string
	Pages []string // Resolved page locators, nil until resolved
}

// ChapterRecord is the persisted statement that a chapter is fully mirrored.
type ChapterRecord struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
}

// PageJob downloads one page image. Dest carries no extension; it is
// appended once the response media type is known.
type PageJob struct {
	Referer string
	URL     string
	Dest    string
	Chapter int
	Page    int
}

// TitleStats summarizes a title for the library listing.
type TitleStats struct {
	Title    Title
	Chapters int
	Pages    int
}
