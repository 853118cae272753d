package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/jobs"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
	"github.com/maltedev/yt-comment-scraper/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubRunner struct{}

func (stubRunner) RunBatch(_ context.Context, inputs []models.VideoInput, opts runner.Options) (*models.BatchReport, error) {
	report := models.NewBatchReport()
	for i, in := range inputs {
		report.Comments = append(report.Comments, models.NewComment(in, "@viewer", "nice video"))
		o := models.Outcome{Input: in, Status: models.OutcomeOK, Comments: 1}
		report.Outcomes = append(report.Outcomes, o)
		if opts.Progress != nil {
			opts.Progress(i+1, o)
		}
	}
	if opts.Transcript {
		report.Transcript = append(report.Transcript, models.TranscriptSegment{Text: "hi", Duration: 1.2})
	}
	return report, nil
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

func newTestServer(t *testing.T, transcripts runner.TranscriptFetcher, worker bool) (*httptest.Server, *jobs.Manager) {
	t.Helper()

	manager := jobs.NewManager(stubRunner{}, nil, nil)
	if worker {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		go manager.StartWorker(ctx)
	}

	srv := httptest.NewServer(NewRouter(NewHandlers(manager, transcripts, nil), RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv, manager
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateJobLifecycle(t *testing.T) {
	srv, manager := newTestServer(t, nil, true)

	resp := postJSON(t, srv.URL+"/api/v1/jobs", CreateJobRequest{
		URLs:   []string{"https://youtu.be/aaaaaaaaaaa", "  "},
		Inputs: []models.VideoInput{{Channel: "chan", Year: "2024", Link: "https://youtu.be/bbbbbbbbbbb"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.JobID)
	assert.Equal(t, 2, created.Inputs)

	require.Eventually(t, func() bool {
		job, err := manager.GetJob(context.Background(), created.JobID)
		return err == nil && job.Status == jobs.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	var job jobs.Job
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/jobs/"+created.JobID, &job))
	assert.Equal(t, 2, job.Processed)

	var list []jobs.Job
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/jobs", &list))
	assert.Len(t, list, 1)

	var comments []models.Comment
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/jobs/"+created.JobID+"/comments", &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "chan", comments[1].Channel)
	assert.Equal(t, "https://youtu.be/bbbbbbbbbbb", comments[1].SourceURL)

	var stats jobs.Stats
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/stats", &stats))
	assert.Equal(t, 1, stats.CompletedJobs)
	assert.Equal(t, 2, stats.TotalComments)
}

func TestExportJob(t *testing.T) {
	srv, manager := newTestServer(t, nil, true)

	job, err := manager.CreateJob(context.Background(), []models.VideoInput{models.NewVideoInput("https://youtu.be/aaaaaaaaaaa")}, true)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, err := manager.GetJob(context.Background(), job.ID)
		return err == nil && j.Status == jobs.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), job.ID)

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"comments", "transcript"}, f.GetSheetList())
	rows, err := f.GetRows("comments")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExportPendingJobConflicts(t *testing.T) {
	srv, manager := newTestServer(t, nil, false)

	job, err := manager.CreateJob(context.Background(), []models.VideoInput{models.NewVideoInput("https://youtu.be/aaaaaaaaaaa")}, false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, getJSON(t, srv.URL+"/api/v1/jobs/"+job.ID+"/export", nil))
}

func TestJobValidationAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	resp := postJSON(t, srv.URL+"/api/v1/jobs", CreateJobRequest{URLs: []string{""}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/jobs/missing/comments", nil))
}

func TestGetTranscript(t *testing.T) {
	transcripts := new(MockTranscripts)
	transcripts.On("Fetch", mock.Anything, "aaaaaaaaaaa").
		Return([]models.TranscriptSegment{{Text: "hi", Start: 0, Duration: 1.2}}, nil)
	transcripts.On("Fetch", mock.Anything, "bbbbbbbbbbb").Return(nil, transcript.ErrNoCaptions)

	srv, _ := newTestServer(t, transcripts, false)

	resp := postJSON(t, srv.URL+"/api/v1/transcripts", TranscriptRequest{URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "aaaaaaaaaaa", body.VideoID)
	assert.Equal(t, []models.TranscriptSegment{{Text: "hi", Start: 0, Duration: 1.2}}, body.Segments)

	resp = postJSON(t, srv.URL+"/api/v1/transcripts", TranscriptRequest{URL: "https://youtu.be/bbbbbbbbbbb"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/transcripts", TranscriptRequest{URL: "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	transcripts.AssertExpectations(t)
}
