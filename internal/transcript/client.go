package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/maltedev/yt-comment-scraper/internal/models"
)

var (
	ErrVideoUnavailable = errors.New("video unavailable")
	ErrNoCaptions       = errors.New("no captions available")
	ErrEmptyTranscript  = errors.New("transcript is empty")
)

var (
	captionTracksPattern = regexp.MustCompile(`"captionTracks"\s*:\s*`)
	playabilityPattern   = regexp.MustCompile(`"playabilityStatus"\s*:\s*\{\s*"status"\s*:\s*"([A-Z_]+)"`)
)

type Options struct {
	BaseURL   string
	Language  string
	Timeout   time.Duration
	UserAgent string
}

// Track is one caption track advertised by the watch page.
type Track struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"`
	VSSID        string `json:"vssId,omitempty"`
}

func (t Track) Generated() bool {
	return t.Kind == "asr"
}

type Client struct {
	http     *resty.Client
	language string
	logger   *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.youtube.com"
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept-Language", opts.Language+";q=0.9,en;q=0.8").
		SetCookie(&http.Cookie{Name: "CONSENT", Value: "YES+cb"})
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{
		http:     client,
		language: opts.Language,
		logger:   logger.With("component", "transcript"),
	}
}

// Fetch downloads the caption track that best matches the configured language.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	tracks, err := c.Tracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track, ok := PickTrack(tracks, c.language)
	if !ok {
		return nil, ErrNoCaptions
	}

	c.logger.Debug("fetching caption track",
		"video_id", videoID,
		"language", track.LanguageCode,
		"generated", track.Generated())

	res, err := c.http.R().
		SetContext(ctx).
		Get(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch captions: status %d", res.StatusCode())
	}

	segments, err := ParseCaptions(res.Body())
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetched transcript", "video_id", videoID, "segments", len(segments), "language", track.LanguageCode)
	return segments, nil
}

// Tracks lists the caption tracks embedded in the watch page of videoID.
func (c *Client) Tracks(ctx context.Context, videoID string) ([]Track, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get("/watch")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watch page: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrVideoUnavailable, res.StatusCode())
	}

	return ExtractTracks(res.String())
}

// ExtractTracks reads the captionTracks array out of a watch page's player response.
func ExtractTracks(page string) ([]Track, error) {
	loc := captionTracksPattern.FindStringIndex(page)
	if loc == nil {
		m := playabilityPattern.FindStringSubmatch(page)
		if m == nil {
			return nil, fmt.Errorf("%w: no player response", ErrVideoUnavailable)
		}
		if m[1] != "OK" {
			return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, strings.ToLower(m[1]))
		}
		return nil, ErrNoCaptions
	}

	var tracks []Track
	dec := json.NewDecoder(strings.NewReader(page[loc[1]:]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("failed to decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}
	return tracks, nil
}

// PickTrack prefers a manual track in language, then a generated one, then the first track.
func PickTrack(tracks []Track, language string) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}

	matches := func(t Track) bool {
		return strings.EqualFold(t.LanguageCode, language) ||
			strings.HasPrefix(strings.ToLower(t.LanguageCode), strings.ToLower(language)+"-")
	}

	for _, t := range tracks {
		if matches(t) && !t.Generated() {
			return t, true
		}
	}
	for _, t := range tracks {
		if matches(t) {
			return t, true
		}
	}
	return tracks[0], true
}
