package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/maltedev/yt-comment-scraper/internal/config"
	"github.com/maltedev/yt-comment-scraper/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *slog.Logger

	outDir   string
	logLevel string
	headful  bool
)

var rootCmd = &cobra.Command{
	Use:           "ytscrape",
	Short:         "ytscrape scrapes comments and transcripts from YouTube videos into spreadsheets.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if outDir != "" {
			cfg.Output.Dir = outDir
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if headful {
			cfg.Browser.Headless = false
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log = logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "Directory for output spreadsheets (default $OUTPUT_DIR or .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&headful, "headful", false, "Show the browser window")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
