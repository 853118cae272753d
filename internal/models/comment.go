package models

import (
	"strings"
	"time"
)

// VideoInput is one row of the batch input sheet, or a bare URL passed on the command line.
type VideoInput struct {
	Channel string `json:"channel,omitempty"`
	Type    string `json:"type,omitempty"`
	Year    string `json:"year,omitempty"`
	Link    string `json:"link"`
}

func NewVideoInput(link string) VideoInput {
	return VideoInput{Link: strings.TrimSpace(link)}
}

type Comment struct {
	Channel   string `json:"channel,omitempty"`
	Type      string `json:"type,omitempty"`
	Year      string `json:"year,omitempty"`
	Username  string `json:"commenter_username"`
	Text      string `json:"comment_text"`
	SourceURL string `json:"source_url"`
}

// NewComment copies the input metadata onto a scraped author/body pair.
func NewComment(in VideoInput, username, text string) Comment {
	return Comment{
		Channel:   in.Channel,
		Type:      in.Type,
		Year:      in.Year,
		Username:  username,
		Text:      text,
		SourceURL: in.Link,
	}
}

type StabilizeReport struct {
	Measurements int           `json:"measurements"`
	Triggers     int           `json:"triggers"`
	FinalHeight  int64         `json:"final_height"`
	Stable       bool          `json:"stable"`
	Elapsed      time.Duration `json:"elapsed"`
}

type ExtractStrategy string

const (
	StrategyStructural ExtractStrategy = "structural"
	StrategyPositional ExtractStrategy = "positional"
)

type CommentResult struct {
	Input         VideoInput      `json:"input"`
	VideoID       string          `json:"video_id,omitempty"`
	Title         string          `json:"title,omitempty"`
	Comments      []Comment       `json:"comments"`
	Strategy      ExtractStrategy `json:"strategy"`
	Stabilization StabilizeReport `json:"stabilization"`
	Warnings      []string        `json:"warnings,omitempty"`
	ScrapedAt     time.Time       `json:"scraped_at"`
}

func NewCommentResult(in VideoInput) *CommentResult {
	return &CommentResult{
		Input:     in,
		Comments:  make([]Comment, 0),
		ScrapedAt: time.Now(),
	}
}

func (r *CommentResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
