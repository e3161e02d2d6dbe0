package styles

import (
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	resultsHeaderStyle = lipgloss.NewStyle().Foreground(Secondary).Bold(true).Align(lipgloss.Center)
	resultsCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// NewResultsTable returns a borderless table for search style listings.
func NewResultsTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return resultsHeaderStyle
			}
			return resultsCellStyle
		}).
		Headers(headers...)
}

// RenderGrid renders a static bubbles table inside the rounded library border.
func RenderGrid(columns []btable.Column, rows []btable.Row) string {
	t := btable.New(
		btable.WithColumns(columns),
		btable.WithRows(rows),
		btable.WithFocused(false),
		btable.WithHeight(len(rows)),
	)

	s := btable.DefaultStyles()
	s.Header = TableHeaderStyle.Padding(0, 1)
	s.Selected = TableSelectedStyle
	t.SetStyles(s)

	return TableBorderStyle.Render(t.View())
}
