package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maltedev/yt-comment-scraper/internal/models"
)

const (
	CommentsSheet   = "comments"
	TranscriptSheet = "transcript"
)

var (
	CommentColumns    = []string{"channel", "type", "year", "commenter_username", "comment_text", "source_url"}
	TranscriptColumns = []string{"text", "start_time", "duration"}
	InputColumns      = []string{"Channel", "Type", "Year", "Link"}
)

func CommentTable(comments []models.Comment) Table {
	t := Table{Name: DefaultSheet, Header: CommentColumns, Rows: make([][]interface{}, 0, len(comments))}
	for _, c := range comments {
		t.Rows = append(t.Rows, []interface{}{c.Channel, c.Type, c.Year, c.Username, c.Text, c.SourceURL})
	}
	return t
}

func TranscriptTable(segments []models.TranscriptSegment) Table {
	t := Table{Name: DefaultSheet, Header: TranscriptColumns, Rows: make([][]interface{}, 0, len(segments))}
	for _, s := range segments {
		t.Rows = append(t.Rows, []interface{}{s.Text, s.Start, s.Duration})
	}
	return t
}

func WriteComments(path string, comments []models.Comment) error {
	return Write(path, CommentTable(comments))
}

func WriteTranscript(path string, segments []models.TranscriptSegment) error {
	return Write(path, TranscriptTable(segments))
}

// WriteMerged puts comments and transcript into one workbook with a sheet for each.
func WriteMerged(path string, comments []models.Comment, segments []models.TranscriptSegment) error {
	c := CommentTable(comments)
	c.Name = CommentsSheet
	tr := TranscriptTable(segments)
	tr.Name = TranscriptSheet
	return WriteWorkbook(path, c, tr)
}

// ReadComments reads a comments sheet written by WriteComments. sheet may be empty for the first sheet.
func ReadComments(path, sheet string) ([]models.Comment, error) {
	t, err := ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(t.Header)
	if err := requireColumns(idx, "commenter_username", "comment_text"); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(t.Rows))
	for _, row := range t.Rows {
		comments = append(comments, models.Comment{
			Channel:   cellString(row, idx, "channel"),
			Type:      cellString(row, idx, "type"),
			Year:      cellString(row, idx, "year"),
			Username:  cellString(row, idx, "commenter_username"),
			Text:      cellString(row, idx, "comment_text"),
			SourceURL: cellString(row, idx, "source_url"),
		})
	}
	return comments, nil
}

func ReadTranscript(path, sheet string) ([]models.TranscriptSegment, error) {
	t, err := ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(t.Header)
	if err := requireColumns(idx, TranscriptColumns...); err != nil {
		return nil, err
	}

	segments := make([]models.TranscriptSegment, 0, len(t.Rows))
	for i, row := range t.Rows {
		start, err := parseFloat(cellString(row, idx, "start_time"))
		if err != nil {
			return nil, fmt.Errorf("row %d start_time: %w", i+2, err)
		}
		duration, err := parseFloat(cellString(row, idx, "duration"))
		if err != nil {
			return nil, fmt.Errorf("row %d duration: %w", i+2, err)
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     cellString(row, idx, "text"),
			Start:    start,
			Duration: duration,
		})
	}
	return segments, nil
}

// ReadInputs reads the batch input sheet. Headers are matched case-insensitively and only Link is
// required. Rows without a link are skipped and counted.
func ReadInputs(path string) ([]models.VideoInput, int, error) {
	t, err := ReadTable(path, "")
	if err != nil {
		return nil, 0, err
	}

	idx := columnIndex(t.Header)
	if err := requireColumns(idx, "link"); err != nil {
		return nil, 0, err
	}

	inputs := make([]models.VideoInput, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		cell := func(column string) string {
			return strings.TrimSpace(cellString(row, idx, column))
		}

		link := cell("link")
		if link == "" {
			skipped++
			continue
		}
		inputs = append(inputs, models.VideoInput{
			Channel: cell("channel"),
			Type:    cell("type"),
			Year:    cell("year"),
			Link:    link,
		})
	}
	return inputs, skipped, nil
}

func requireColumns(idx map[string]int, columns ...string) error {
	for _, c := range columns {
		if _, ok := idx[strings.ToLower(c)]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
