package styles

import (
	"strings"
	"testing"

	btable "github.com/charmbracelet/bubbles/table"
)

func TestNewResultsTable(t *testing.T) {
	tbl := NewResultsTable("#", "Name", "ID")
	tbl.Row("1", "One Piece", "2")

	out := tbl.String()
	for _, want := range []string{"Name", "One Piece", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table, got:\n%s", want, out)
		}
	}
}

func TestRenderGrid(t *testing.T) {
	out := RenderGrid(
		[]btable.Column{{Title: "Index", Width: 6}, {Title: "Name", Width: 20}},
		[]btable.Row{{"1", "Romance Dawn"}, {"2", "Pirate Hunter"}},
	)

	for _, want := range []string{"Index", "Romance Dawn", "Pirate Hunter"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in grid, got:\n%s", want, out)
		}
	}
}
