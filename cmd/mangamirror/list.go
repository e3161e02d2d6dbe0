package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/kerbaras/mangamirror/pkg/app/styles"
	"github.com/kerbaras/mangamirror/pkg/services"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all titles in your mirror",
	Long: `Display every added title with its mirrored chapter and page counts.

With --mal-id the recorded chapters of that title are listed instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		malID, _ := cmd.Flags().GetInt("mal-id")

		controller, err := newController()
		if err != nil {
			return err
		}
		defer controller.Close()

		if malID > 0 {
			return listChapters(controller, malID)
		}

		titles, err := controller.Repo.ListTitles()
		if err != nil {
			return err
		}
		if len(titles) == 0 {
			fmt.Println("📚 No titles in the mirror. Use 'mangamirror search' and 'mangamirror add' to add one.")
			return nil
		}

		columns := []table.Column{
			{Title: "MAL", Width: 8},
			{Title: "Name", Width: 40},
			{Title: "Source", Width: 8},
			{Title: "Status", Width: 10},
			{Title: "Chapters", Width: 10},
			{Title: "Pages", Width: 8},
		}

		rows := make([]table.Row, 0, len(titles))
		for _, stats := range titles {
			status := stats.Title.Status
			if status == "" {
				status = "added"
			}
			rows = append(rows, table.Row{
				strconv.Itoa(stats.Title.MalID),
				truncateString(stats.Title.Name, 38),
				strconv.Itoa(stats.Title.SourceID),
				status,
				strconv.Itoa(stats.Chapters),
				strconv.Itoa(stats.Pages),
			})
		}

		fmt.Printf("\n📚 Mirror (%d titles)\n\n", len(titles))
		fmt.Println(styles.RenderGrid(columns, rows))
		return nil
	},
}

func listChapters(controller *services.MangaController, malID int) error {
	title, records, err := controller.TitleChapters(malID)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("📖 %s has no recorded chapters. Run 'mangamirror fetch --mal-id %d'.\n", title.Name, malID)
		return nil
	}

	columns := []table.Column{
		{Title: "#", Width: 6},
		{Title: "Name", Width: 48},
		{Title: "Pages", Width: 8},
	}
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			strconv.Itoa(rec.Index),
			truncateString(rec.Name, 46),
			strconv.Itoa(rec.PageCount),
		})
	}

	fmt.Printf("\n📖 %s (%d chapters)\n\n", title.Name, len(records))
	fmt.Println(styles.RenderGrid(columns, rows))
	return nil
}

func init() {
	listCmd.Flags().Int("mal-id", 0, "list the chapters of this title")

	rootCmd.AddCommand(listCmd)
}
