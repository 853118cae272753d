package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/events"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/ratelimit"
	"github.com/maltedev/yt-comment-scraper/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	results map[string]*models.CommentResult
	errs    map[string]error
	calls   []string
	onCall  func()
}

func (f *fakeScraper) Scrape(_ context.Context, in models.VideoInput) (*models.CommentResult, error) {
	f.calls = append(f.calls, in.Link)
	if f.onCall != nil {
		f.onCall()
	}
	return f.results[in.Link], f.errs[in.Link]
}

type MockTranscripts struct {
	mock.Mock
}

func (m *MockTranscripts) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptSegment), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishVideoScraped(ctx context.Context, payload *events.VideoScrapedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func link(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func resultFor(in models.VideoInput, n int) *models.CommentResult {
	r := models.NewCommentResult(in)
	r.Title = "title " + in.Link
	for i := 0; i < n; i++ {
		r.Comments = append(r.Comments, models.NewComment(in, fmt.Sprintf("@user%d", i), fmt.Sprintf("comment %d", i)))
	}
	return r
}

func fastLimiter() *ratelimit.Pacer {
	return ratelimit.NewPacer(time.Millisecond, time.Millisecond)
}

type countingLimiter struct {
	waits int
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func TestRunSingleWithTranscript(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))
	s := &fakeScraper{results: map[string]*models.CommentResult{in.Link: resultFor(in, 3)}}

	segments := []models.TranscriptSegment{{Text: "hi", Start: 0, Duration: 1.2}}
	transcripts := new(MockTranscripts)
	transcripts.On("Fetch", mock.Anything, "aaaaaaaaaaa").Return(segments, nil)

	res, err := New(s, transcripts, fastLimiter(), nil).RunSingle(context.Background(), in, Options{Transcript: true})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeOK, res.Outcome.Status)
	assert.Equal(t, "aaaaaaaaaaa", res.Outcome.VideoID)
	assert.Equal(t, 3, res.Outcome.Comments)
	assert.Equal(t, 1, res.Outcome.Segments)
	assert.Equal(t, segments, res.Transcript)
	assert.True(t, res.Outcome.TranscriptFetched)
	transcripts.AssertExpectations(t)
}

func TestRunSingleCanceledBeforeTranscript(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &fakeScraper{
		results: map[string]*models.CommentResult{in.Link: resultFor(in, 2)},
		onCall:  cancel,
	}
	transcripts := new(MockTranscripts)

	res, err := New(s, transcripts, fastLimiter(), nil).RunSingle(ctx, in, Options{Transcript: true})
	require.NoError(t, err)

	assert.False(t, res.Outcome.TranscriptFetched)
	assert.Empty(t, res.Outcome.TranscriptError)
	assert.Empty(t, res.Transcript)
	transcripts.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRunSingleTranscriptFailureKeepsComments(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))
	s := &fakeScraper{results: map[string]*models.CommentResult{in.Link: resultFor(in, 2)}}

	transcripts := new(MockTranscripts)
	transcripts.On("Fetch", mock.Anything, "aaaaaaaaaaa").Return(nil, errors.New("no captions available"))

	res, err := New(s, transcripts, fastLimiter(), nil).RunSingle(context.Background(), in, Options{Transcript: true})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePartial, res.Outcome.Status)
	assert.Len(t, res.Comments, 2)
	assert.Equal(t, "no captions available", res.Outcome.TranscriptError)
	assert.False(t, res.Outcome.TranscriptFetched)
}

func TestRunSingleSkipsTranscriptWhenNotRequested(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))
	s := &fakeScraper{results: map[string]*models.CommentResult{in.Link: resultFor(in, 1)}}
	transcripts := new(MockTranscripts)

	res, err := New(s, transcripts, fastLimiter(), nil).RunSingle(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOK, res.Outcome.Status)
	transcripts.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRunSingleFailure(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))
	cause := &scraper.StepError{Step: scraper.StepNavigate, Err: errors.New("timeout")}
	s := &fakeScraper{errs: map[string]error{in.Link: cause}}

	res, err := New(s, nil, fastLimiter(), nil).RunSingle(context.Background(), in, Options{})
	require.Error(t, err)

	var stepErr *scraper.StepError
	assert.ErrorAs(t, err, &stepErr)
	assert.Equal(t, models.OutcomeFailed, res.Outcome.Status)
	assert.Contains(t, res.Outcome.Error, "navigate")
	assert.Empty(t, res.Comments)
}

func TestRunSingleNotStabilizedIsPartial(t *testing.T) {
	in := models.NewVideoInput(link("aaaaaaaaaaa"))
	partial := resultFor(in, 4)
	partial.AddWarning("page height did not stabilize")
	s := &fakeScraper{
		results: map[string]*models.CommentResult{in.Link: partial},
		errs:    map[string]error{in.Link: fmt.Errorf("%w: reached 3 scrolls", scraper.ErrNotStabilized)},
	}

	res, err := New(s, nil, fastLimiter(), nil).RunSingle(context.Background(), in, Options{})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePartial, res.Outcome.Status)
	assert.Len(t, res.Comments, 4)
	assert.Len(t, res.Outcome.Warnings, 1)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	inputs := []models.VideoInput{
		{Channel: "a", Link: link("aaaaaaaaaaa")},
		{Channel: "b", Link: link("bbbbbbbbbbb")},
		{Channel: "c", Link: link("ccccccccccc")},
	}
	s := &fakeScraper{
		results: map[string]*models.CommentResult{
			inputs[0].Link: resultFor(inputs[0], 2),
			inputs[2].Link: resultFor(inputs[2], 1),
		},
		errs: map[string]error{inputs[1].Link: errors.New("browser crashed")},
	}

	publisher := new(MockPublisher)
	publisher.On("PublishVideoScraped", mock.Anything, mock.Anything).Return(nil)

	var progress []int
	report, err := New(s, nil, fastLimiter(), nil).
		WithPublisher(publisher).
		RunBatch(context.Background(), inputs, Options{
			JobID:    "job-1",
			Progress: func(done int, _ models.Outcome) { progress = append(progress, done) },
		})
	require.NoError(t, err)

	assert.Equal(t, []string{inputs[0].Link, inputs[1].Link, inputs[2].Link}, s.calls)
	require.Len(t, report.Comments, 3)
	assert.Equal(t, "a", report.Comments[0].Channel)
	assert.Equal(t, "a", report.Comments[1].Channel)
	assert.Equal(t, "c", report.Comments[2].Channel)

	summary := report.Summary()
	assert.Equal(t, models.Summary{Inputs: 3, OK: 2, Failed: 1, Comments: 3}, summary)
	assert.Equal(t, "browser crashed", report.Outcomes[1].Error)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	publisher.AssertNumberOfCalls(t, "PublishVideoScraped", 3)
	publisher.AssertCalled(t, "PublishVideoScraped", mock.Anything, mock.MatchedBy(func(p *events.VideoScrapedPayload) bool {
		return p.JobID == "job-1" && p.Status == models.OutcomeFailed && p.URL == inputs[1].Link
	}))
}

func TestRunBatchPacingIgnoresFailures(t *testing.T) {
	inputs := []models.VideoInput{
		models.NewVideoInput(link("aaaaaaaaaaa")),
		models.NewVideoInput(link("bbbbbbbbbbb")),
		models.NewVideoInput(link("ccccccccccc")),
		models.NewVideoInput(link("ddddddddddd")),
	}
	s := &fakeScraper{errs: map[string]error{}}
	for _, in := range inputs {
		s.errs[in.Link] = errors.New("browser crashed")
	}

	limiter := &countingLimiter{}
	report, err := New(s, nil, limiter, nil).RunBatch(context.Background(), inputs, Options{})
	require.NoError(t, err)

	assert.Equal(t, len(inputs), limiter.waits)
	assert.Len(t, s.calls, len(inputs))
	assert.Equal(t, len(inputs), report.Summary().Failed)
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	inputs := []models.VideoInput{
		models.NewVideoInput(link("aaaaaaaaaaa")),
		models.NewVideoInput(link("bbbbbbbbbbb")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &fakeScraper{
		results: map[string]*models.CommentResult{inputs[0].Link: resultFor(inputs[0], 1)},
		onCall:  cancel,
	}

	report, err := New(s, nil, fastLimiter(), nil).RunBatch(ctx, inputs, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.calls, 1)
	assert.Len(t, report.Outcomes, 1)
	assert.Len(t, report.Comments, 1)
}

func TestRunBatchCollectsTranscripts(t *testing.T) {
	inputs := []models.VideoInput{models.NewVideoInput(link("aaaaaaaaaaa")), models.NewVideoInput("not a video")}
	s := &fakeScraper{
		results: map[string]*models.CommentResult{inputs[0].Link: resultFor(inputs[0], 1)},
		errs:    map[string]error{inputs[1].Link: scraper.ErrInvalidURL},
	}

	transcripts := new(MockTranscripts)
	transcripts.On("Fetch", mock.Anything, "aaaaaaaaaaa").
		Return([]models.TranscriptSegment{{Text: "x", Start: 1, Duration: 2}}, nil)

	report, err := New(s, transcripts, fastLimiter(), nil).RunBatch(context.Background(), inputs, Options{Transcript: true})
	require.NoError(t, err)

	assert.Len(t, report.Transcript, 1)
	assert.Equal(t, models.OutcomeFailed, report.Outcomes[1].Status)
	assert.Contains(t, report.Outcomes[1].TranscriptError, "invalid video URL")
	transcripts.AssertNumberOfCalls(t, "Fetch", 1)
}
