package models

import (
	"time"
)

type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "ok"
	OutcomePartial OutcomeStatus = "partial"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome records what happened to a single input of a run.
type Outcome struct {
	Input    VideoInput    `json:"input"`
	VideoID  string        `json:"video_id,omitempty"`
	Title    string        `json:"title,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Comments int           `json:"comments"`
	Segments int           `json:"segments"`
	// TranscriptFetched is set only when a transcript was actually retrieved.
	TranscriptFetched bool     `json:"transcript_fetched"`
	Error             string   `json:"error,omitempty"`
	TranscriptError   string   `json:"transcript_error,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// BatchReport accumulates comments across inputs in input order.
type BatchReport struct {
	Comments   []Comment           `json:"comments"`
	Transcript []TranscriptSegment `json:"transcript,omitempty"`
	Outcomes   []Outcome           `json:"outcomes"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

func NewBatchReport() *BatchReport {
	return &BatchReport{
		Comments:  make([]Comment, 0),
		Outcomes:  make([]Outcome, 0),
		StartedAt: time.Now(),
	}
}

type Summary struct {
	Inputs   int `json:"inputs"`
	OK       int `json:"ok"`
	Partial  int `json:"partial"`
	Failed   int `json:"failed"`
	Comments int `json:"comments"`
}

func (r *BatchReport) Summary() Summary {
	s := Summary{
		Inputs:   len(r.Outcomes),
		Comments: len(r.Comments),
	}
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomeOK:
			s.OK++
		case OutcomePartial:
			s.Partial++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}
