package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/events"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/parser"
	"github.com/maltedev/yt-comment-scraper/internal/ratelimit"
	"github.com/maltedev/yt-comment-scraper/internal/scraper"
)

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

type EventPublisher interface {
	PublishVideoScraped(ctx context.Context, payload *events.VideoScrapedPayload) error
}

type Options struct {
	Transcript bool
	JobID      string
	// Progress is called after each input with the number of inputs processed so far.
	Progress func(done int, outcome models.Outcome)
}

// Result is everything gathered for one input.
type Result struct {
	Outcome    models.Outcome
	Comments   []models.Comment
	Transcript []models.TranscriptSegment
	Detail     *models.CommentResult
}

// Runner processes inputs strictly one after another.
type Runner struct {
	scraper     scraper.Scraper
	transcripts TranscriptFetcher
	publisher   EventPublisher
	limiter     ratelimit.RateLimiter
	logger      *slog.Logger
}

func New(s scraper.Scraper, transcripts TranscriptFetcher, limiter ratelimit.RateLimiter, logger *slog.Logger) *Runner {
	if limiter == nil {
		limiter = ratelimit.NewPacer(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		scraper:     s,
		transcripts: transcripts,
		limiter:     limiter,
		logger:      logger.With("component", "runner"),
	}
}

// WithPublisher enables one event per processed input.
func (r *Runner) WithPublisher(p EventPublisher) *Runner {
	r.publisher = p
	return r
}

// RunSingle scrapes the comments of one video and then, if asked, its transcript. A transcript
// failure is recorded on the outcome and never discards the comments. The returned error is the
// comment scrape error, if any; the result is always non-nil.
func (r *Runner) RunSingle(ctx context.Context, in models.VideoInput, opts Options) (*Result, error) {
	res := &Result{
		Outcome:    models.Outcome{Input: in, Status: models.OutcomeOK},
		Comments:   make([]models.Comment, 0),
		Transcript: make([]models.TranscriptSegment, 0),
	}
	if id, err := parser.ExtractVideoID(in.Link); err == nil {
		res.Outcome.VideoID = id
	}

	log := r.logger.With("url", in.Link)

	detail, scrapeErr := r.scraper.Scrape(ctx, in)
	if detail != nil {
		res.Detail = detail
		res.Comments = detail.Comments
		res.Outcome.Title = detail.Title
		res.Outcome.Comments = len(detail.Comments)
		res.Outcome.Warnings = append(res.Outcome.Warnings, detail.Warnings...)
		if detail.VideoID != "" {
			res.Outcome.VideoID = detail.VideoID
		}
	}

	switch {
	case scrapeErr == nil:
	case errors.Is(scrapeErr, scraper.ErrNotStabilized) && detail != nil:
		res.Outcome.Status = models.OutcomePartial
		log.Warn("comment scrape incomplete", "comments", len(detail.Comments), "error", scrapeErr)
	default:
		res.Outcome.Status = models.OutcomeFailed
		res.Outcome.Error = scrapeErr.Error()
		log.Error("failed to scrape comments", "error", scrapeErr)
	}

	if opts.Transcript && ctx.Err() == nil {
		segments, err := r.fetchTranscript(ctx, res.Outcome.VideoID, in.Link)
		if err != nil {
			res.Outcome.TranscriptError = err.Error()
			if res.Outcome.Status == models.OutcomeOK {
				res.Outcome.Status = models.OutcomePartial
			}
			log.Warn("failed to fetch transcript", "error", err)
		} else {
			res.Transcript = segments
			res.Outcome.Segments = len(segments)
			res.Outcome.TranscriptFetched = true
		}
	}

	r.publish(ctx, opts.JobID, res.Outcome)

	if scrapeErr != nil && res.Outcome.Status == models.OutcomeFailed {
		return res, fmt.Errorf("failed to scrape %s: %w", in.Link, scrapeErr)
	}
	return res, nil
}

func (r *Runner) fetchTranscript(ctx context.Context, videoID, link string) ([]models.TranscriptSegment, error) {
	if r.transcripts == nil {
		return nil, errors.New("no transcript client configured")
	}
	if videoID == "" {
		return nil, fmt.Errorf("%w: %s", parser.ErrInvalidURL, link)
	}
	return r.transcripts.Fetch(ctx, videoID)
}

// RunBatch processes inputs in order, waiting on the rate limiter between them. A failing input is
// recorded and the batch moves on. Cancellation stops the batch and returns what was gathered.
func (r *Runner) RunBatch(ctx context.Context, inputs []models.VideoInput, opts Options) (*models.BatchReport, error) {
	report := models.NewBatchReport()
	defer func() { report.FinishedAt = time.Now() }()

	r.logger.Info("starting batch", "inputs", len(inputs), "transcript", opts.Transcript)

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return report, err
		}

		res, err := r.RunSingle(ctx, in, opts)
		if err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}

		report.Comments = append(report.Comments, res.Comments...)
		report.Transcript = append(report.Transcript, res.Transcript...)
		report.Outcomes = append(report.Outcomes, res.Outcome)

		if opts.Progress != nil {
			opts.Progress(i+1, res.Outcome)
		}
	}

	summary := report.Summary()
	r.logger.Info("batch finished",
		"inputs", summary.Inputs,
		"ok", summary.OK,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"comments", summary.Comments)

	return report, nil
}

func (r *Runner) publish(ctx context.Context, jobID string, o models.Outcome) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishVideoScraped(ctx, events.NewVideoScrapedPayload(jobID, o)); err != nil {
		r.logger.Warn("failed to publish event", "url", o.Input.Link, "error", err)
	}
}
