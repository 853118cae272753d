package transcript

import (
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/maltedev/yt-comment-scraper/internal/models"
)

// captionDoc covers both timedtext layouts: <transcript><text start dur> in seconds and the srv3
// <timedtext><body><p t d> in milliseconds.
type captionDoc struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paras []struct {
			T    int64  `xml:"t,attr"`
			D    int64  `xml:"d,attr"`
			Body string `xml:",chardata"`
			Segs []struct {
				Body string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

func ParseCaptions(data []byte) ([]models.TranscriptSegment, error) {
	var doc captionDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse captions: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(doc.Texts)+len(doc.Body.Paras))

	for _, t := range doc.Texts {
		text := cleanText(t.Body)
		if text == "" {
			continue
		}
		start, err := strconv.ParseFloat(t.Start, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start %q: %w", t.Start, err)
		}
		var dur float64
		if t.Dur != "" {
			if dur, err = strconv.ParseFloat(t.Dur, 64); err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", t.Dur, err)
			}
		}
		segments = append(segments, models.TranscriptSegment{Text: text, Start: start, Duration: dur})
	}

	for _, p := range doc.Body.Paras {
		var b strings.Builder
		b.WriteString(p.Body)
		for _, s := range p.Segs {
			b.WriteString(s.Body)
		}
		text := cleanText(b.String())
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			Start:    float64(p.T) / 1000,
			Duration: float64(p.D) / 1000,
		})
	}

	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}
	return segments, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
