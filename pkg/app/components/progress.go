package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kerbaras/mangamirror/pkg/app/styles"
	"github.com/kerbaras/mangamirror/pkg/services"
)

// TitleProgress is the folded state of one title run.
type TitleProgress struct {
	MalID     int
	Chapter   int
	Completed int
	Total     int
	Status    string
	Error     error
}

type ProgressTracker struct {
	titles  map[int]*TitleProgress
	current int
	width   int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		titles: make(map[int]*TitleProgress),
		width:  width,
	}
}

// Update folds one event into the tracker. Events without a MAL id belong
// to the title started last.
func (p *ProgressTracker) Update(progress services.DownloadProgress) {
	if progress.Status == services.StatusTitle {
		p.current = progress.MalID
		p.titles[progress.MalID] = &TitleProgress{MalID: progress.MalID, Status: services.StatusTitle}
		return
	}

	malID := progress.MalID
	if malID == 0 {
		malID = p.current
	}
	title, ok := p.titles[malID]
	if !ok {
		title = &TitleProgress{MalID: malID}
		p.titles[malID] = title
	}

	title.Status = progress.Status
	switch progress.Status {
	case services.StatusResolving:
		title.Chapter = progress.Chapter
	case services.StatusQueued:
		title.Total = progress.Total
	case services.StatusDownloading:
		if progress.Completed > title.Completed {
			title.Completed = progress.Completed
		}
		if progress.Total > 0 {
			title.Total = progress.Total
		}
	case services.StatusComplete:
		title.Completed = title.Total
	case services.StatusError:
		title.Error = progress.Error
	}
}

// HasActive reports whether a title has not reached a final status.
func (p *ProgressTracker) HasActive() bool {
	for _, title := range p.titles {
		if title.Status != services.StatusComplete && title.Status != services.StatusError {
			return true
		}
	}
	return false
}

// Current returns the state of the title started last.
func (p *ProgressTracker) Current() *TitleProgress {
	return p.titles[p.current]
}

// Line renders the current title on a single line.
func (p *ProgressTracker) Line() string {
	title := p.Current()
	if title == nil {
		return ""
	}

	label := fmt.Sprintf("MAL %d", title.MalID)
	switch title.Status {
	case services.StatusTitle:
		return styles.MutedStyle.Render(label + " discovering")
	case services.StatusResolving:
		return styles.StatusStyle(title.Status).Render(fmt.Sprintf("%s resolving chapter %d", label, title.Chapter))
	}

	if title.Total == 0 {
		return styles.StatusStyle(title.Status).Render(label + " " + title.Status)
	}
	bar := renderProgressBar(title.Completed, title.Total, p.width)
	return fmt.Sprintf("%s %s %s", styles.TextStyle.Render(label), bar,
		styles.StatusStyle(title.Status).Render(fmt.Sprintf("%d/%d pages", title.Completed, title.Total)))
}

// View renders every title seen so far, ordered by MAL id.
func (p *ProgressTracker) View() string {
	if len(p.titles) == 0 {
		return ""
	}

	ids := make([]int, 0, len(p.titles))
	for id := range p.titles {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Mirror Runs"))
	b.WriteString("\n\n")

	for _, id := range ids {
		progress := p.titles[id]

		b.WriteString(styles.TextStyle.Render(fmt.Sprintf("MAL %d", progress.MalID)))
		b.WriteString("\n")

		statusText := progress.Status
		if progress.Total > 0 {
			percentage := float64(progress.Completed) / float64(progress.Total) * 100
			statusText = fmt.Sprintf("%s (%d/%d pages - %.0f%%)",
				progress.Status, progress.Completed, progress.Total, percentage)

			b.WriteString(renderProgressBar(progress.Completed, progress.Total, p.width-4))
			b.WriteString("\n")
		}

		b.WriteString(styles.StatusStyle(progress.Status).Render(statusText))
		b.WriteString("\n")

		if progress.Error != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}
