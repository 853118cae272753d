package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchReportSummary(t *testing.T) {
	r := NewBatchReport()
	r.Comments = append(r.Comments,
		Comment{Username: "@a", Text: "one"},
		Comment{Username: "@b", Text: "two"},
	)
	r.Outcomes = append(r.Outcomes,
		Outcome{Status: OutcomeOK, Comments: 2},
		Outcome{Status: OutcomePartial},
		Outcome{Status: OutcomeFailed, Error: "boom"},
		Outcome{Status: OutcomeFailed, Error: "boom"},
	)

	s := r.Summary()
	assert.Equal(t, Summary{Inputs: 4, OK: 1, Partial: 1, Failed: 2, Comments: 2}, s)
}

func TestNewCommentCopiesInput(t *testing.T) {
	in := VideoInput{Channel: "Chan", Type: "Vlog", Year: "2021", Link: "https://www.youtube.com/watch?v=abcdefghijk"}

	c := NewComment(in, "@user", "hello")

	assert.Equal(t, "Chan", c.Channel)
	assert.Equal(t, "Vlog", c.Type)
	assert.Equal(t, "2021", c.Year)
	assert.Equal(t, "@user", c.Username)
	assert.Equal(t, "hello", c.Text)
	assert.Equal(t, in.Link, c.SourceURL)
}
