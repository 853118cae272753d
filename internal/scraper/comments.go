package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/parser"
)

// CommentScraper opens one page per input, loads every lazily rendered comment and extracts them.
type CommentScraper struct {
	opener Opener
	parser parser.Parser
	poller *Poller
	opts   Options
	logger *slog.Logger
}

func NewCommentScraper(opener Opener, p parser.Parser, opts Options, logger *slog.Logger) *CommentScraper {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CommentsSection == "" {
		opts.CommentsSection = "#comments"
	}
	if p == nil {
		p = parser.NewCommentParser(parser.DefaultSelectors())
	}
	return &CommentScraper{
		opener: opener,
		parser: p,
		poller: NewPoller(opts.Poller, logger),
		opts:   opts,
		logger: logger.With("component", "comment_scraper"),
	}
}

// Scrape returns the comments of one video page. The page is closed before Scrape returns.
// If the page never stabilizes the comments loaded so far are returned together with an error
// wrapping ErrNotStabilized.
func (s *CommentScraper) Scrape(ctx context.Context, in models.VideoInput) (*models.CommentResult, error) {
	if err := validateURL(in.Link); err != nil {
		return nil, err
	}

	result := models.NewCommentResult(in)
	target := in.Link
	if id, err := parser.ExtractVideoID(in.Link); err == nil {
		result.VideoID = id
		// shorts and embeds have no comment section, the watch page does
		target = parser.WatchURL(id)
	}

	log := s.logger.With("url", in.Link)
	log.Info("scraping comments")

	page, err := s.opener.Open(ctx)
	if err != nil {
		return nil, stepError(StepOpenSession, "", fmt.Errorf("%w: %w", ErrSessionOpen, err))
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("failed to close page", "error", cerr)
		}
	}()

	if err := page.Navigate(ctx, target); err != nil {
		return nil, stepError(StepNavigate, "", err)
	}

	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return nil, err
	}

	found, err := page.Evaluate(ctx, scriptScrollInto, s.opts.CommentsSection)
	if err != nil {
		return nil, stepError(StepCommentsSection, s.opts.CommentsSection, err)
	}
	if ok, _ := found.(bool); !ok {
		return nil, stepError(StepCommentsSection, s.opts.CommentsSection, ErrSelectorNotFound)
	}

	if err := sleep(ctx, s.opts.SectionDelay); err != nil {
		return nil, err
	}

	report, stabilizeErr := s.poller.Stabilize(ctx, page)
	result.Stabilization = report
	if stabilizeErr != nil {
		if !errors.Is(stabilizeErr, ErrNotStabilized) {
			return nil, stabilizeErr
		}
		result.AddWarning(stabilizeErr.Error())
	}

	// one more scroll so the last batch of replies is attached before reading the DOM
	if _, err := page.Evaluate(ctx, scriptScrollBottom); err != nil {
		return nil, stepError(StepScroll, "", err)
	}

	html, err := page.Content(ctx)
	if err != nil {
		return nil, stepError(StepContent, "", err)
	}

	ext, err := s.parser.ParseComments(html)
	if err != nil {
		return nil, stepError(StepExtract, "", err)
	}

	result.Title = ext.Title
	result.Strategy = ext.Strategy
	for _, pair := range ext.Pairs {
		result.Comments = append(result.Comments, models.NewComment(in, pair.Username, pair.Text))
	}

	if ext.SkippedUnits > 0 {
		result.AddWarning(fmt.Sprintf("skipped %d comment units without text", ext.SkippedUnits))
	}
	if ext.Misaligned != nil {
		result.AddWarning(ext.Misaligned.Error())
		log.Warn("comment pairing misaligned",
			"usernames", ext.Misaligned.Usernames,
			"comments", ext.Misaligned.Comments,
			"dropped", ext.Misaligned.Dropped())
	}

	log.Info("scraped comments",
		"video_id", result.VideoID,
		"comments", len(result.Comments),
		"strategy", result.Strategy,
		"scrolls", report.Triggers,
		"stable", report.Stable)

	return result, stabilizeErr
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return nil
}
