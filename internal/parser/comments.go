package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/yt-comment-scraper/internal/models"
)

type Selectors struct {
	Unit   string
	Author string
	Body   string
	Title  string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Unit:   "ytd-comment-view-model, ytd-comment-renderer",
		Author: "#author-text",
		Body:   "#content-text",
		Title:  "#container h1 yt-formatted-string",
	}
}

// Pair is one author/body pair in page order.
type Pair struct {
	Username string
	Text     string
}

type Extraction struct {
	Title        string
	Pairs        []Pair
	Strategy     models.ExtractStrategy
	SkippedUnits int
	Misaligned   *MisalignedError
}

type CommentParser struct {
	sel Selectors
}

func NewCommentParser(sel Selectors) *CommentParser {
	def := DefaultSelectors()
	if sel.Unit == "" {
		sel.Unit = def.Unit
	}
	if sel.Author == "" {
		sel.Author = def.Author
	}
	if sel.Body == "" {
		sel.Body = def.Body
	}
	if sel.Title == "" {
		sel.Title = def.Title
	}
	return &CommentParser{sel: sel}
}

// ParseComments reads every comment unit as one record. When no unit matches it falls back to
// pairing the author and body selectors by position.
func (p *CommentParser) ParseComments(html string) (*Extraction, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	ext := &Extraction{
		Title:    p.extractTitle(doc),
		Pairs:    make([]Pair, 0),
		Strategy: models.StrategyStructural,
	}

	units := doc.Find(p.sel.Unit)
	if units.Length() > 0 {
		units.Each(func(_ int, unit *goquery.Selection) {
			body := normalizeBody(unit.Find(p.sel.Body).First().Text())
			if body == "" {
				ext.SkippedUnits++
				return
			}
			author := normalizeInline(unit.Find(p.sel.Author).First().Text())
			ext.Pairs = append(ext.Pairs, Pair{Username: author, Text: body})
		})
		return ext, nil
	}

	ext.Strategy = models.StrategyPositional
	usernames := Texts(doc, p.sel.Author, normalizeInline)
	comments := Texts(doc, p.sel.Body, normalizeBody)

	pairs, err := PairByPosition(usernames, comments)
	ext.Pairs = pairs
	var misaligned *MisalignedError
	if errors.As(err, &misaligned) {
		ext.Misaligned = misaligned
	}

	return ext, nil
}

func (p *CommentParser) ExtractTitle(html string) (string, error) {
	doc, err := newDocument(html)
	if err != nil {
		return "", err
	}
	return p.extractTitle(doc), nil
}

func (p *CommentParser) extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{p.sel.Title, "h1.ytd-watch-metadata", "meta[name='title']"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if content, ok := sel.Attr("content"); ok {
			if title := normalizeInline(content); title != "" {
				return title
			}
			continue
		}
		if title := normalizeInline(sel.Text()); title != "" {
			return title
		}
	}

	title := normalizeInline(doc.Find("title").First().Text())
	return strings.TrimSuffix(title, " - YouTube")
}

// PairByPosition zips two independently collected lists by index. Equal lengths give one pair per
// index; otherwise the orphans of the longer list are dropped and a *MisalignedError is returned
// alongside the pairs that could be formed.
func PairByPosition(usernames, comments []string) ([]Pair, error) {
	n := len(usernames)
	if len(comments) < n {
		n = len(comments)
	}

	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, Pair{Username: usernames[i], Text: comments[i]})
	}

	if len(usernames) != len(comments) {
		return pairs, &MisalignedError{Usernames: len(usernames), Comments: len(comments)}
	}
	return pairs, nil
}

// Texts returns the normalized text of every element matching selector, in document order.
func Texts(doc *goquery.Document, selector string, normalize func(string) string) []string {
	texts := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, normalize(s.Text()))
	})
	return texts
}

func newDocument(html string) (*goquery.Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

var blankRun = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)

func normalizeInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeBody keeps line breaks but collapses blanks inside each line.
func normalizeBody(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimSpace(blankRun.ReplaceAllString(line, " ")))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
