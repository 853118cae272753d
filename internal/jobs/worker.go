package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/queue"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
)

// StartWorker processes queued jobs one at a time until ctx is done or the queue is closed.
// Only one worker may run per manager so that a single browser session is open at any time.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				m.logger.Info("job worker stopping")
				return
			}
			m.logger.Error("failed to pop task", "error", err)
			continue
		}

		m.processJob(ctx, task.JobID)
	}
}

func (m *Manager) processJob(ctx context.Context, jobID string) {
	job, err := m.GetJob(ctx, jobID)
	if err != nil {
		m.logger.Error("queued job vanished", "id", jobID, "error", err)
		return
	}

	m.logger.Info("processing job", "id", jobID, "inputs", len(job.Inputs))

	m.update(jobID, func(e *entry) {
		now := time.Now()
		e.job.Status = StatusRunning
		e.job.StartedAt = &now
	})

	report, err := m.runner.RunBatch(ctx, job.Inputs, runner.Options{
		Transcript: job.Transcript,
		JobID:      jobID,
		Progress: func(done int, o models.Outcome) {
			m.update(jobID, func(e *entry) {
				e.job.Processed = done
				e.job.Comments += o.Comments
				e.job.Segments += o.Segments
				e.job.Outcomes = append(e.job.Outcomes, o)
			})
		},
	})

	m.update(jobID, func(e *entry) {
		now := time.Now()
		e.job.CompletedAt = &now
		if report != nil {
			e.comments = report.Comments
			e.transcript = report.Transcript
		}
		if err != nil {
			e.job.Status = StatusFailed
			e.job.Error = err.Error()
			return
		}
		e.job.Status = StatusCompleted
	})

	if err != nil {
		m.logger.Error("job failed", "id", jobID, "error", err)
		return
	}
	m.logger.Info("job completed", "id", jobID, "comments", len(report.Comments))
}
