package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/models"
)

const (
	scriptHeight       = `() => document.documentElement.scrollHeight`
	scriptScrollBottom = `() => window.scrollTo(0, document.documentElement.scrollHeight)`
	scriptScrollInto   = `(selector) => {
		const el = document.querySelector(selector);
		if (!el) return false;
		el.scrollIntoView();
		return true;
	}`
)

type PollerOptions struct {
	Interval time.Duration
	MaxPolls int
	Timeout  time.Duration
}

func DefaultPollerOptions() PollerOptions {
	return PollerOptions{
		Interval: 2 * time.Second,
		MaxPolls: 150,
		Timeout:  10 * time.Minute,
	}
}

// Poller scrolls a page to the bottom until two consecutive height measurements match.
type Poller struct {
	opts   PollerOptions
	logger *slog.Logger
}

func NewPoller(opts PollerOptions, logger *slog.Logger) *Poller {
	def := DefaultPollerOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = def.MaxPolls
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		opts:   opts,
		logger: logger.With("component", "poller"),
	}
}

// Stabilize measures the height once, then scrolls, waits and re-measures until the height stops
// changing. A page that settles after k scrolls is measured k+1 times. When MaxPolls or Timeout is
// reached first the report gathered so far is returned with an error wrapping ErrNotStabilized.
func (p *Poller) Stabilize(ctx context.Context, page Page) (models.StabilizeReport, error) {
	var report models.StabilizeReport
	start := time.Now()

	waitCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	prev, err := measureHeight(ctx, page)
	if err != nil {
		return report, err
	}
	report.Measurements = 1
	report.FinalHeight = prev

	for {
		if report.Triggers >= p.opts.MaxPolls {
			return p.unstable(report, start, fmt.Errorf("%w: reached %d scrolls", ErrNotStabilized, report.Triggers))
		}

		if _, err := page.Evaluate(ctx, scriptScrollBottom); err != nil {
			return report, stepError(StepScroll, "", err)
		}
		report.Triggers++

		if err := sleep(waitCtx, p.opts.Interval); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			return p.unstable(report, start, fmt.Errorf("%w: timed out after %s", ErrNotStabilized, p.opts.Timeout))
		}

		cur, err := measureHeight(ctx, page)
		if err != nil {
			return report, err
		}
		report.Measurements++
		report.FinalHeight = cur

		p.logger.Debug("measured page height", "height", cur, "previous", prev, "scrolls", report.Triggers)

		if cur == prev {
			report.Stable = true
			report.Elapsed = time.Since(start)
			return report, nil
		}
		prev = cur
	}
}

func (p *Poller) unstable(report models.StabilizeReport, start time.Time, err error) (models.StabilizeReport, error) {
	report.Elapsed = time.Since(start)
	p.logger.Warn("page height did not stabilize",
		"measurements", report.Measurements,
		"scrolls", report.Triggers,
		"height", report.FinalHeight,
		"error", err)
	return report, err
}

func measureHeight(ctx context.Context, page Page) (int64, error) {
	v, err := page.Evaluate(ctx, scriptHeight)
	if err != nil {
		return 0, stepError(StepMeasureHeight, "", err)
	}
	h, err := toHeight(v)
	if err != nil {
		return 0, stepError(StepMeasureHeight, "", err)
	}
	return h, nil
}

func toHeight(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unexpected height value %v (%T)", v, v)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
