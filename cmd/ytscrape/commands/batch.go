package commands

import (
	"fmt"

	"github.com/maltedev/yt-comment-scraper/internal/runner"
	"github.com/maltedev/yt-comment-scraper/internal/sheet"
	"github.com/spf13/cobra"
)

var (
	batchInput      string
	batchTranscript bool
)

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "Input workbook with Channel, Type, Year and Link columns (default $INPUT_FILE)")
	batchCmd.Flags().BoolVar(&batchTranscript, "transcript", false, "Also fetch transcripts")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch [--input youtube_input.xlsx]",
	Short: "Scrapes the comments of every video listed in an input workbook.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := batchInput
		if input == "" {
			input = cfg.Output.InputFile
		}

		inputs, skipped, err := sheet.ReadInputs(input)
		if err != nil {
			return fmt.Errorf("failed to read inputs: %w", err)
		}
		if skipped > 0 {
			log.Warn("skipped input rows without a link", "rows", skipped)
		}

		r, closeRunner := newRunner(cfg, log)
		defer closeRunner()

		report, runErr := r.RunBatch(cmd.Context(), inputs, runner.Options{Transcript: batchTranscript})

		out := cmd.OutOrStdout()

		// whatever was gathered before a cancellation is still written
		path := cfg.Output.Path(cfg.Output.CommentsFile)
		if err := sheet.WriteComments(path, report.Comments); err != nil {
			return fmt.Errorf("failed to write comments: %w", err)
		}
		wrote(out, path, len(report.Comments))

		if batchTranscript {
			path := cfg.Output.Path(cfg.Output.TranscriptFile)
			if err := sheet.WriteTranscript(path, report.Transcript); err != nil {
				return fmt.Errorf("failed to write transcript: %w", err)
			}
			wrote(out, path, len(report.Transcript))
		}

		renderOutcomes(out, report.Outcomes)
		renderSummary(out, report.Summary(), skipped)

		if runErr != nil {
			return fmt.Errorf("batch interrupted after %d of %d inputs: %w", len(report.Outcomes), len(inputs), runErr)
		}
		if s := report.Summary(); s.Inputs > 0 && s.Failed == s.Inputs {
			return fmt.Errorf("all %d inputs failed", s.Inputs)
		}
		return nil
	},
}

