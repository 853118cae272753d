package parser

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL = errors.New("invalid video URL")
	ErrEmptyHTML  = errors.New("empty HTML content")
)

// Parser turns the rendered HTML of a watch page into comment pairs.
type Parser interface {
	ParseComments(html string) (*Extraction, error)
	ExtractTitle(html string) (string, error)
}

// MisalignedError reports that positional pairing had lists of different lengths.
// Pairs beyond the shorter list were dropped.
type MisalignedError struct {
	Usernames int
	Comments  int
}

func (e *MisalignedError) Error() string {
	return fmt.Sprintf("positional pairing misaligned: %d usernames, %d comments", e.Usernames, e.Comments)
}

func (e *MisalignedError) Dropped() int {
	if e.Usernames > e.Comments {
		return e.Usernames - e.Comments
	}
	return e.Comments - e.Usernames
}
