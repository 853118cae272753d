package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Scraper    ScraperConfig
	Selectors  SelectorConfig
	Browser    BrowserConfig
	Transcript TranscriptConfig
	Output     OutputConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	SettleDelay      time.Duration
	SectionDelay     time.Duration
	PollInterval     time.Duration
	MaxPolls         int
	StabilizeTimeout time.Duration
	RateLimitMin     time.Duration
	RateLimitMax     time.Duration
}

type SelectorConfig struct {
	CommentsSection string
	CommentUnit     string
	Author          string
	Body            string
	Title           string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type TranscriptConfig struct {
	Language string
	Timeout  time.Duration
	BaseURL  string
}

type OutputConfig struct {
	Dir            string
	CommentsFile   string
	TranscriptFile string
	MergedFile     string
	InputFile      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scraper: ScraperConfig{
			SettleDelay:      getDurationOrDefault("SCRAPER_SETTLE_DELAY", 5*time.Second),
			SectionDelay:     getDurationOrDefault("SCRAPER_SECTION_DELAY", 7*time.Second),
			PollInterval:     getDurationOrDefault("SCRAPER_POLL_INTERVAL", 2*time.Second),
			MaxPolls:         getIntOrDefault("SCRAPER_MAX_POLLS", 150),
			StabilizeTimeout: getDurationOrDefault("SCRAPER_STABILIZE_TIMEOUT", 10*time.Minute),
			RateLimitMin:     getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax:     getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 5*time.Second),
		},
		Selectors: SelectorConfig{
			CommentsSection: getEnvOrDefault("SELECTOR_COMMENTS", "#comments"),
			CommentUnit:     getEnvOrDefault("SELECTOR_COMMENT_UNIT", "ytd-comment-view-model, ytd-comment-renderer"),
			Author:          getEnvOrDefault("SELECTOR_AUTHOR", "#author-text"),
			Body:            getEnvOrDefault("SELECTOR_BODY", "#content-text"),
			Title:           getEnvOrDefault("SELECTOR_TITLE", "#container h1 yt-formatted-string"),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "UTC"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
		},
		Transcript: TranscriptConfig{
			Language: getEnvOrDefault("TRANSCRIPT_LANGUAGE", "en"),
			Timeout:  getDurationOrDefault("TRANSCRIPT_TIMEOUT", 30*time.Second),
			BaseURL:  getEnvOrDefault("TRANSCRIPT_BASE_URL", "https://www.youtube.com"),
		},
		Output: OutputConfig{
			Dir:            getEnvOrDefault("OUTPUT_DIR", "."),
			CommentsFile:   getEnvOrDefault("OUTPUT_COMMENTS_FILE", "youtube_comments_output.xlsx"),
			TranscriptFile: getEnvOrDefault("OUTPUT_TRANSCRIPT_FILE", "youtube_transcript_output.xlsx"),
			MergedFile:     getEnvOrDefault("OUTPUT_MERGED_FILE", "youtube_scrape_output.xlsx"),
			InputFile:      getEnvOrDefault("INPUT_FILE", "youtube_input.xlsx"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:video_scrapes"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.PollInterval <= 0 {
		return fmt.Errorf("SCRAPER_POLL_INTERVAL must be positive")
	}

	if c.Scraper.MaxPolls < 1 {
		return fmt.Errorf("SCRAPER_MAX_POLLS must be at least 1")
	}

	if c.Scraper.StabilizeTimeout <= 0 {
		return fmt.Errorf("SCRAPER_STABILIZE_TIMEOUT must be positive")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Selectors.Author == "" || c.Selectors.Body == "" {
		return fmt.Errorf("SELECTOR_AUTHOR and SELECTOR_BODY are required")
	}

	if c.Output.CommentsFile == "" || c.Output.TranscriptFile == "" {
		return fmt.Errorf("output file names are required")
	}

	return nil
}

// Path joins name onto the output directory unless name is already absolute.
func (o OutputConfig) Path(name string) string {
	if filepath.IsAbs(name) || o.Dir == "" {
		return name
	}
	return filepath.Join(o.Dir, name)
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
