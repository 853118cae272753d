package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/queue"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrNoInputs    = errors.New("job has no inputs")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const listLimit = 100

// BatchRunner is satisfied by *runner.Runner.
type BatchRunner interface {
	RunBatch(ctx context.Context, inputs []models.VideoInput, opts runner.Options) (*models.BatchReport, error)
}

// Job is a snapshot of a scrape job. Jobs only live in memory.
type Job struct {
	ID          string              `json:"id"`
	Status      Status              `json:"status"`
	Inputs      []models.VideoInput `json:"inputs"`
	Transcript  bool                `json:"transcript"`
	Processed   int                 `json:"processed"`
	Comments    int                 `json:"comments"`
	Segments    int                 `json:"segments"`
	Outcomes    []models.Outcome    `json:"outcomes"`
	CreatedAt   time.Time           `json:"created_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	PendingJobs   int     `json:"pending_jobs"`
	RunningJobs   int     `json:"running_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	FailedJobs    int     `json:"failed_jobs"`
	TotalVideos   int     `json:"total_videos"`
	TotalComments int     `json:"total_comments"`
	SuccessRate   float64 `json:"success_rate"`
}

type entry struct {
	job        Job
	comments   []models.Comment
	transcript []models.TranscriptSegment
}

type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*entry
	queue  queue.Queue
	runner BatchRunner
	logger *slog.Logger
}

func NewManager(r BatchRunner, q queue.Queue, logger *slog.Logger) *Manager {
	if q == nil {
		q = queue.NewInMemoryQueue()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		jobs:   make(map[string]*entry),
		queue:  q,
		runner: r,
		logger: logger.With("component", "job_manager"),
	}
}

// CreateJob registers a job and queues it for the worker.
func (m *Manager) CreateJob(ctx context.Context, inputs []models.VideoInput, transcript bool) (*Job, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	e := &entry{
		job: Job{
			ID:         uuid.New().String(),
			Status:     StatusPending,
			Inputs:     append([]models.VideoInput(nil), inputs...),
			Transcript: transcript,
			Outcomes:   make([]models.Outcome, 0, len(inputs)),
			CreatedAt:  time.Now(),
		},
		comments: make([]models.Comment, 0),
	}

	m.mu.Lock()
	m.jobs[e.job.ID] = e
	m.mu.Unlock()

	if err := m.queue.Push(&queue.Task{ID: uuid.New().String(), JobID: e.job.ID}); err != nil {
		m.mu.Lock()
		delete(m.jobs, e.job.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	m.logger.Info("job created", "id", e.job.ID, "inputs", len(inputs), "transcript", transcript)
	return m.GetJob(ctx, e.job.ID)
}

func (m *Manager) GetJob(_ context.Context, jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return e.snapshot(), nil
}

// ListJobs returns the newest jobs first.
func (m *Manager) ListJobs(_ context.Context) []*Job {
	m.mu.RLock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, e := range m.jobs {
		jobs = append(jobs, e.snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if len(jobs) > listLimit {
		jobs = jobs[:listLimit]
	}
	return jobs
}

func (m *Manager) GetJobComments(_ context.Context, jobID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return append([]models.Comment(nil), e.comments...), nil
}

func (m *Manager) GetJobTranscript(_ context.Context, jobID string) ([]models.TranscriptSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return append([]models.TranscriptSegment(nil), e.transcript...), nil
}

func (m *Manager) GetStats(_ context.Context) *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{TotalJobs: len(m.jobs)}
	for _, e := range m.jobs {
		switch e.job.Status {
		case StatusPending:
			stats.PendingJobs++
		case StatusRunning:
			stats.RunningJobs++
		case StatusCompleted:
			stats.CompletedJobs++
		case StatusFailed:
			stats.FailedJobs++
		}
		stats.TotalVideos += e.job.Processed
		stats.TotalComments += e.job.Comments
	}

	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100
	}
	return stats
}

func (m *Manager) Close() error {
	return m.queue.Close()
}

func (m *Manager) update(jobID string, fn func(e *entry)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.jobs[jobID]; ok {
		fn(e)
	}
}

func (e *entry) snapshot() *Job {
	j := e.job
	j.Inputs = append([]models.VideoInput(nil), e.job.Inputs...)
	j.Outcomes = append([]models.Outcome(nil), e.job.Outcomes...)
	if j.Outcomes == nil {
		j.Outcomes = make([]models.Outcome, 0)
	}
	return &j
}
