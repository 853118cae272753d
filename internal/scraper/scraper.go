package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/models"
)

var (
	ErrInvalidURL       = errors.New("invalid video URL")
	ErrSelectorNotFound = errors.New("selector not found")
	ErrNotStabilized    = errors.New("page height did not stabilize")
	ErrSessionOpen      = errors.New("failed to open browser session")
)

// Steps reported by StepError.
const (
	StepOpenSession     = "open_session"
	StepNavigate        = "navigate"
	StepCommentsSection = "comments_section"
	StepMeasureHeight   = "measure_height"
	StepScroll          = "scroll"
	StepContent         = "content"
	StepExtract         = "extract"
)

// StepError names the scrape step that failed and, where relevant, the selector involved.
type StepError struct {
	Step     string
	Selector string
	Err      error
}

func (e *StepError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("%s (%s): %v", e.Step, e.Selector, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step, selector string, err error) error {
	return &StepError{Step: step, Selector: selector, Err: err}
}

// Page is a live browser tab. Implementations must be safe to Close more than once.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string, args ...interface{}) (interface{}, error)
	Content(ctx context.Context) (string, error)
	Close() error
}

// Opener hands out a fresh page for each scrape. The caller owns the page.
type Opener interface {
	Open(ctx context.Context) (Page, error)
}

type OpenerFunc func(ctx context.Context) (Page, error)

func (f OpenerFunc) Open(ctx context.Context) (Page, error) {
	return f(ctx)
}

type Scraper interface {
	Scrape(ctx context.Context, in models.VideoInput) (*models.CommentResult, error)
}

type Options struct {
	SettleDelay     time.Duration
	SectionDelay    time.Duration
	CommentsSection string
	Poller          PollerOptions
}
