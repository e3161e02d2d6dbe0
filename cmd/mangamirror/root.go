package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/kerbaras/mangamirror/pkg/config"
	"github.com/kerbaras/mangamirror/pkg/logging"
	"github.com/kerbaras/mangamirror/pkg/services"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mangamirror",
	Short: "Mirror manga from Mangapill to a local directory",
	Long: `Keep a local mirror of manga titles up to date.

Titles are keyed by their MyAnimeList id. Each fetch discovers the chapter
list, downloads only the chapters not yet recorded in chapters.json, and
rewrites the record once every page is on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New(cfgFile)
		flags := cmd.Root().PersistentFlags()
		for key, flag := range map[string]string{
			"base_dir":  "dir",
			"workers":   "workers",
			"log_level": "log-level",
		} {
			if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
				return err
			}
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or $HOME/.mangamirror/config.yaml)")
	flags.StringP("dir", "d", "", "base directory of the mirror")
	flags.IntP("workers", "w", 1, "number of concurrent page downloads")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

// newController wires the services from the loaded configuration. Callers
// own the returned controller and must close it.
func newController() (*services.MangaController, error) {
	return services.NewMangaController(cfg, logger)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
