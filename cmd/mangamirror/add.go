package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a title to the mirror",
	Long: `Register a title under the base directory.

Looks up the AniList metadata by MyAnimeList id (only when metadata.json is
absent), checks the Mangapill chapter list and writes title.json. Nothing is
downloaded until the next fetch.`,
	Example: "  mangamirror add --mal-id 13 --source-id 2",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		malID, _ := cmd.Flags().GetInt("mal-id")
		sourceID, _ := cmd.Flags().GetInt("source-id")

		controller, err := newController()
		if err != nil {
			return err
		}
		defer controller.Close()

		fmt.Printf("🔍 Looking up MAL %d on Mangapill %d...\n", malID, sourceID)

		report, err := controller.Mirror.AddTitle(cmd.Context(), malID, sourceID)
		if err != nil {
			return fmt.Errorf("add failed: %w", err)
		}

		if report.MetadataFetched {
			fmt.Println("📝 Saved AniList metadata")
		}
		fmt.Printf("✅ Added '%s' with %d chapters\n", report.Title.Name, report.Chapters)
		fmt.Printf("💡 To download chapters, use: mangamirror fetch --mal-id %d\n", malID)
		return nil
	},
}

func init() {
	addCmd.Flags().Int("mal-id", 0, "MyAnimeList id of the title")
	addCmd.Flags().Int("source-id", 0, "Mangapill id of the title")
	addCmd.MarkFlagRequired("mal-id")
	addCmd.MarkFlagRequired("source-id")

	rootCmd.AddCommand(addCmd)
}
