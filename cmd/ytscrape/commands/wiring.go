package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/maltedev/yt-comment-scraper/internal/browser"
	"github.com/maltedev/yt-comment-scraper/internal/config"
	"github.com/maltedev/yt-comment-scraper/internal/events"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/parser"
	"github.com/maltedev/yt-comment-scraper/internal/ratelimit"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
	"github.com/maltedev/yt-comment-scraper/internal/scraper"
	"github.com/maltedev/yt-comment-scraper/internal/transcript"
)

func browserOptions(c config.BrowserConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Headless
	opts.Timeout = c.Timeout
	opts.UserAgent = c.UserAgent
	opts.ViewportWidth = c.ViewportWidth
	opts.ViewportHeight = c.ViewportHeight
	opts.AcceptLanguage = c.AcceptLanguage
	opts.TimezoneID = c.TimezoneID
	opts.Locale = c.Locale
	return opts
}

func newCommentScraper(c *config.Config, logger *slog.Logger) *scraper.CommentScraper {
	p := parser.NewCommentParser(parser.Selectors{
		Unit:   c.Selectors.CommentUnit,
		Author: c.Selectors.Author,
		Body:   c.Selectors.Body,
		Title:  c.Selectors.Title,
	})

	return scraper.NewCommentScraper(browser.NewLauncher(browserOptions(c.Browser), logger), p, scraper.Options{
		SettleDelay:     c.Scraper.SettleDelay,
		SectionDelay:    c.Scraper.SectionDelay,
		CommentsSection: c.Selectors.CommentsSection,
		Poller: scraper.PollerOptions{
			Interval: c.Scraper.PollInterval,
			MaxPolls: c.Scraper.MaxPolls,
			Timeout:  c.Scraper.StabilizeTimeout,
		},
	}, logger)
}

func newTranscriptClient(c *config.Config, logger *slog.Logger) *transcript.Client {
	return transcript.NewClient(transcript.Options{
		BaseURL:   c.Transcript.BaseURL,
		Language:  c.Transcript.Language,
		Timeout:   c.Transcript.Timeout,
		UserAgent: c.Browser.UserAgent,
	}, logger)
}

// newRunner wires the scrape pipeline. The returned close func releases the event publisher.
func newRunner(c *config.Config, logger *slog.Logger) (*runner.Runner, func()) {
	r := runner.New(
		newCommentScraper(c, logger),
		newTranscriptClient(c, logger),
		ratelimit.NewPacer(c.Scraper.RateLimitMin, c.Scraper.RateLimitMax),
		logger,
	)

	if !c.Redis.Enabled() {
		return r, func() {}
	}

	publisher := events.NewPublisher(
		events.NewRedisClient(c.Redis.Addr, c.Redis.Password, c.Redis.DB),
		c.Redis.Stream,
		logger,
	)
	r.WithPublisher(publisher)

	return r, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
}

func renderOutcomes(w io.Writer, outcomes []models.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Video", "Channel", "Status", "Comments", "Segments", "Notes"})

	for i, o := range outcomes {
		video := o.VideoID
		if video == "" {
			video = o.Input.Link
		}
		t.AppendRow(table.Row{i + 1, video, o.Input.Channel, o.Status, o.Comments, o.Segments, notes(o)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderSummary(w io.Writer, s models.Summary, skipped int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Inputs", "OK", "Partial", "Failed", "Skipped rows", "Comments"})
	t.AppendRow(table.Row{s.Inputs, s.OK, s.Partial, s.Failed, skipped, s.Comments})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func notes(o models.Outcome) string {
	var parts []string
	if o.Error != "" {
		parts = append(parts, o.Error)
	}
	if o.TranscriptError != "" {
		parts = append(parts, "transcript: "+o.TranscriptError)
	}
	parts = append(parts, o.Warnings...)

	runes := []rune(strings.Join(parts, "; "))
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return string(runes)
}

func wrote(w io.Writer, path string, rows int) {
	fmt.Fprintf(w, "wrote %d rows to %s\n", rows, path)
}
