package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kerbaras/mangamirror/pkg/app/components"
	"github.com/kerbaras/mangamirror/pkg/services"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download new chapters of added titles",
	Long: `Bring titles up to date with Mangapill.

Without --mal-id every title under the base directory is fetched in
ascending MyAnimeList id order. The first failure aborts the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		malID, _ := cmd.Flags().GetInt("mal-id")
		quiet, _ := cmd.Flags().GetBool("quiet")

		controller, err := newController()
		if err != nil {
			return err
		}
		defer controller.Close()

		tracker := components.NewProgressTracker(30)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for progress := range controller.Progress.Events() {
				tracker.Update(progress)
				if quiet {
					continue
				}
				fmt.Fprintf(os.Stderr, "\r\033[K%s", tracker.Line())
				if progress.Status == services.StatusComplete || progress.Status == services.StatusError {
					fmt.Fprintln(os.Stderr)
				}
			}
			// an interrupted run leaves the line open
			if !quiet && tracker.HasActive() {
				fmt.Fprintln(os.Stderr)
			}
		}()

		var reports []*services.Report
		if malID > 0 {
			reports, err = fetchOne(cmd.Context(), controller, malID)
		} else {
			reports, err = controller.Mirror.FetchAll(cmd.Context())
		}

		controller.Progress.Close()
		<-done

		if !quiet && (len(reports) > 1 || err != nil) {
			fmt.Fprint(os.Stderr, tracker.View())
		}
		for _, report := range reports {
			fmt.Printf("📚 MAL %d: %d chapters, %d new, %d pages downloaded\n",
				report.Title.MalID, len(report.Records), len(report.Missing), report.Jobs)
		}
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		if len(reports) == 0 {
			fmt.Println("📚 No titles to fetch. Use 'mangamirror add' first.")
			return nil
		}
		fmt.Println("✅ Mirror up to date")
		return nil
	},
}

func fetchOne(ctx context.Context, controller *services.MangaController, malID int) ([]*services.Report, error) {
	title, err := controller.Mirror.Title(malID)
	if err != nil {
		return nil, err
	}
	report, err := controller.Mirror.Fetch(ctx, title)
	if err != nil {
		return nil, err
	}
	return []*services.Report{report}, nil
}

func init() {
	fetchCmd.Flags().Int("mal-id", 0, "fetch only this title")
	fetchCmd.Flags().BoolP("quiet", "q", false, "hide the progress line")

	rootCmd.AddCommand(fetchCmd)
}
