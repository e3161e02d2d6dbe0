package cmd

import (
	"fmt"

	"github.com/kerbaras/mangamirror/pkg/integrations"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a mirrored title as an EPUB",
	Long:  "Compile every recorded chapter of a title into one EPUB, pages in reading order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		malID, _ := cmd.Flags().GetInt("mal-id")
		output, _ := cmd.Flags().GetString("output")

		controller, err := newController()
		if err != nil {
			return err
		}
		defer controller.Close()

		var exporter integrations.Exporter = integrations.NewEPubBuilder(output)

		fmt.Printf("📖 Exporting MAL %d...\n", malID)
		path, err := exporter.Export(controller.Mirror.Paths(malID))
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("✅ EPUB created: %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int("mal-id", 0, "MyAnimeList id of the title")
	exportCmd.Flags().StringP("output", "o", ".", "output directory")
	exportCmd.MarkFlagRequired("mal-id")

	rootCmd.AddCommand(exportCmd)
}
