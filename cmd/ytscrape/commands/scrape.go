package commands

import (
	"fmt"

	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
	"github.com/maltedev/yt-comment-scraper/internal/sheet"
	"github.com/spf13/cobra"
)

var (
	scrapeNoTranscript bool
	scrapeMerge        bool
)

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeNoTranscript, "no-transcript", false, "Only scrape comments")
	scrapeCmd.Flags().BoolVar(&scrapeMerge, "merge", false, "Also write comments and transcript into one workbook")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrapes the comments (and transcript) of one video.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, closeRunner := newRunner(cfg, log)
		defer closeRunner()

		res, scrapeErr := r.RunSingle(cmd.Context(), models.NewVideoInput(args[0]), runner.Options{
			Transcript: !scrapeNoTranscript,
		})

		out := cmd.OutOrStdout()

		if res.Outcome.Status != models.OutcomeFailed {
			path := cfg.Output.Path(cfg.Output.CommentsFile)
			if err := sheet.WriteComments(path, res.Comments); err != nil {
				return fmt.Errorf("failed to write comments: %w", err)
			}
			wrote(out, path, len(res.Comments))
		}

		if res.Outcome.TranscriptFetched {
			path := cfg.Output.Path(cfg.Output.TranscriptFile)
			if err := sheet.WriteTranscript(path, res.Transcript); err != nil {
				return fmt.Errorf("failed to write transcript: %w", err)
			}
			wrote(out, path, len(res.Transcript))
		}

		if scrapeMerge && res.Outcome.Status != models.OutcomeFailed {
			path := cfg.Output.Path(cfg.Output.MergedFile)
			if err := sheet.WriteMerged(path, res.Comments, res.Transcript); err != nil {
				return fmt.Errorf("failed to write merged workbook: %w", err)
			}
			wrote(out, path, len(res.Comments)+len(res.Transcript))
		}

		renderOutcomes(out, []models.Outcome{res.Outcome})

		return scrapeErr
	},
}
