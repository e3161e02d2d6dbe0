package services

import "sync"

const (
	StatusTitle       = "title"       // a title run started, MalID set
	StatusResolving   = "resolving"   // resolving the pages of Chapter
	StatusQueued      = "queued"      // Total page jobs compiled
	StatusDownloading = "downloading" // one more page written
	StatusComplete    = "complete"    // title run finished
	StatusError       = "error"
)

// DownloadProgress represents the progress of a mirror run.
type DownloadProgress struct {
	MalID     int
	Chapter   int
	Page      int
	Completed int
	Total     int
	Status    string
	Error     error
}

// Progress fans progress events out to at most one reader. Sends never
// block: when the buffer is full the event is dropped.
type Progress struct {
	ch   chan DownloadProgress
	once sync.Once
}

func NewProgress(buffer int) *Progress {
	return &Progress{ch: make(chan DownloadProgress, buffer)}
}

func (p *Progress) Events() <-chan DownloadProgress {
	return p.ch
}

func (p *Progress) send(ev DownloadProgress) {
	if p == nil {
		return
	}
	select {
	case p.ch <- ev:
	default:
	}
}

// Close ends the event stream. Safe to call more than once.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.ch) })
}
