package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kerbaras/mangamirror/pkg/app/styles"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Mangapill for a title",
	Long:  "Search Mangapill by name. The ID column is the --source-id expected by 'mangamirror add'.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, err := newController()
		if err != nil {
			return err
		}
		defer controller.Close()

		results, err := controller.SearchManga(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No Mangapill titles matched.")
			return nil
		}

		t := styles.NewResultsTable("#", "Name", "ID")
		for i, result := range results {
			t.Row(strconv.Itoa(i+1), truncateString(result.Name, 58), strconv.Itoa(result.ID))
		}
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
