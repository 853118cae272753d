package commands

import (
	"fmt"

	"github.com/maltedev/yt-comment-scraper/internal/parser"
	"github.com/maltedev/yt-comment-scraper/internal/sheet"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(transcriptCmd)
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <url>",
	Short: "Downloads the transcript of one video without opening a browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := parser.ExtractVideoID(args[0])
		if err != nil {
			return err
		}

		segments, err := newTranscriptClient(cfg, log).Fetch(cmd.Context(), videoID)
		if err != nil {
			return fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
		}

		path := cfg.Output.Path(cfg.Output.TranscriptFile)
		if err := sheet.WriteTranscript(path, segments); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}

		wrote(cmd.OutOrStdout(), path, len(segments))
		return nil
	},
}
