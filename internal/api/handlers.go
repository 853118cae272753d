package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/yt-comment-scraper/internal/jobs"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/maltedev/yt-comment-scraper/internal/parser"
	"github.com/maltedev/yt-comment-scraper/internal/runner"
	"github.com/maltedev/yt-comment-scraper/internal/sheet"
	"github.com/maltedev/yt-comment-scraper/internal/transcript"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handlers struct {
	jobs        *jobs.Manager
	transcripts runner.TranscriptFetcher
	logger      *slog.Logger
}

func NewHandlers(jobs *jobs.Manager, transcripts runner.TranscriptFetcher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		jobs:        jobs,
		transcripts: transcripts,
		logger:      logger.With("component", "api"),
	}
}

// CreateJobRequest accepts bare URLs, full input rows, or both.
type CreateJobRequest struct {
	URLs       []string            `json:"urls"`
	Inputs     []models.VideoInput `json:"inputs"`
	Transcript bool                `json:"transcript"`
}

type CreateJobResponse struct {
	JobID   string      `json:"job_id"`
	Status  jobs.Status `json:"status"`
	Inputs  int         `json:"inputs"`
	Message string      `json:"message"`
}

type TranscriptRequest struct {
	URL string `json:"url"`
}

type TranscriptResponse struct {
	VideoID  string                     `json:"video_id"`
	Segments []models.TranscriptSegment `json:"segments"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.GetStats(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"pending_jobs": stats.PendingJobs,
		"running_jobs": stats.RunningJobs,
	})
}

func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inputs := make([]models.VideoInput, 0, len(req.URLs)+len(req.Inputs))
	for _, u := range req.URLs {
		if in := models.NewVideoInput(u); in.Link != "" {
			inputs = append(inputs, in)
		}
	}
	for _, in := range req.Inputs {
		in.Link = strings.TrimSpace(in.Link)
		if in.Link != "" {
			inputs = append(inputs, in)
		}
	}

	if len(inputs) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one url or input with a link is required")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), inputs, req.Transcript)
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Inputs:  len(job.Inputs),
		Message: "Job created successfully",
	})
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		h.respondJobError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.ListJobs(r.Context()))
}

func (h *Handlers) GetJobComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.jobs.GetJobComments(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		h.respondJobError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, comments)
}

// ExportJob streams the job's comments, and its transcript if one was fetched, as a workbook.
func (h *Handlers) ExportJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondJobError(w, err)
		return
	}
	if job.Status == jobs.StatusPending || job.Status == jobs.StatusRunning {
		h.respondError(w, http.StatusConflict, "job is not finished")
		return
	}

	comments, err := h.jobs.GetJobComments(r.Context(), jobID)
	if err != nil {
		h.respondJobError(w, err)
		return
	}
	segments, err := h.jobs.GetJobTranscript(r.Context(), jobID)
	if err != nil {
		h.respondJobError(w, err)
		return
	}

	tables := []sheet.Table{sheet.CommentTable(comments)}
	if job.Transcript {
		tables[0].Name = sheet.CommentsSheet
		t := sheet.TranscriptTable(segments)
		t.Name = sheet.TranscriptSheet
		tables = append(tables, t)
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="youtube_comments_%s.xlsx"`, jobID))
	if err := sheet.WriteTo(w, tables...); err != nil {
		h.logger.Error("failed to write export", "job_id", jobID, "error", err)
	}
}

func (h *Handlers) GetTranscript(w http.ResponseWriter, r *http.Request) {
	var req TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID, err := parser.ExtractVideoID(req.URL)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "url is not a video url")
		return
	}

	segments, err := h.transcripts.Fetch(r.Context(), videoID)
	switch {
	case err == nil:
	case errors.Is(err, transcript.ErrNoCaptions), errors.Is(err, transcript.ErrEmptyTranscript):
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, transcript.ErrVideoUnavailable):
		h.respondError(w, http.StatusNotFound, "video unavailable")
		return
	default:
		h.logger.Error("failed to fetch transcript", "video_id", videoID, "error", err)
		h.respondError(w, http.StatusBadGateway, "failed to fetch transcript")
		return
	}

	h.respondJSON(w, http.StatusOK, TranscriptResponse{VideoID: videoID, Segments: segments})
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.GetStats(r.Context()))
}

func (h *Handlers) respondJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrJobNotFound) {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	h.logger.Error("job lookup failed", "error", err)
	h.respondError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
