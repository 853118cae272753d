package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/yt-comment-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventTypeVideoScraped EventType = "VIDEO_SCRAPED"
)

// RedisClient is the subset of the redis client used for publishing.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// VideoScrapedPayload describes the outcome of one scraped video.
type VideoScrapedPayload struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Timestamp time.Time            `json:"timestamp"`
	JobID     string               `json:"job_id,omitempty"`
	VideoID   string               `json:"video_id,omitempty"`
	URL       string               `json:"url"`
	Title     string               `json:"title,omitempty"`
	Channel   string               `json:"channel,omitempty"`
	Status    models.OutcomeStatus `json:"status"`
	Comments  int                  `json:"comments"`
	Segments  int                  `json:"segments"`
	Error     string               `json:"error,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

func NewVideoScrapedPayload(jobID string, o models.Outcome) *VideoScrapedPayload {
	return &VideoScrapedPayload{
		JobID:    jobID,
		VideoID:  o.VideoID,
		URL:      o.Input.Link,
		Title:    o.Title,
		Channel:  o.Input.Channel,
		Status:   o.Status,
		Comments: o.Comments,
		Segments: o.Segments,
		Error:    o.Error,
		Warnings: o.Warnings,
	}
}

// Publisher appends scrape events to a Redis stream.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = "stream:video_scrapes"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (p *Publisher) PublishVideoScraped(ctx context.Context, payload *VideoScrapedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeVideoScraped)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      payload.EventType,
			"event_id":  payload.EventID,
			"video_id":  payload.VideoID,
			"url":       payload.URL,
			"status":    string(payload.Status),
			"comments":  payload.Comments,
			"segments":  payload.Segments,
			"error":     payload.Error,
			"timestamp": fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"data":      string(data),
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"video_id", payload.VideoID,
		"stream_id", id,
	)

	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
