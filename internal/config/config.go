// Package config loads ringview configuration from the environment with an
// optional TOML overlay for layout tuning.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	HTTPAddr    string // RINGVIEW_HTTP_ADDR (default ":8080")
	FeedURL     string // RINGVIEW_FEED_URL (console; default derives from HTTP addr)
	DatabaseURL string // RINGVIEW_DATABASE_URL (optional, empty = in-memory store)
	NATSURL     string // RINGVIEW_NATS_URL (optional, empty = no pipeline bridge)
	AuthToken   string // RINGVIEW_AUTH_TOKEN (optional, empty = auth disabled)

	// Channel settings
	BackoffBase       time.Duration // RINGVIEW_BACKOFF_BASE (default 1s)
	MaxAttempts       int           // RINGVIEW_MAX_ATTEMPTS (default 5)
	HeartbeatInterval time.Duration // RINGVIEW_HEARTBEAT_INTERVAL (default 30s)

	// Archive settings
	ArchiveInterval   time.Duration // RINGVIEW_ARCHIVE_INTERVAL (default 3m; 0 = disabled)
	ArchiveS3Bucket   string        // RINGVIEW_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // RINGVIEW_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // RINGVIEW_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // RINGVIEW_ARCHIVE_S3_KEY (default "ringview/cases.jsonl")
	ArchiveFile       string        // RINGVIEW_ARCHIVE_FILE (enables local file when set)

	// Layout tuning, overridable from a TOML file (RINGVIEW_LAYOUT_FILE).
	Layout Layout
}

// Layout holds the force-layout tuning knobs. Zero values take the
// simulator defaults.
type Layout struct {
	Repulsion   float64 `toml:"repulsion"`
	Stiffness   float64 `toml:"stiffness"`
	Gravity     float64 `toml:"gravity"`
	Damping     float64 `toml:"damping"`
	MinDistance float64 `toml:"min_distance"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:          envOrDefault("RINGVIEW_HTTP_ADDR", ":8080"),
		FeedURL:           envOrDefault("RINGVIEW_FEED_URL", "ws://127.0.0.1:8080/v1/stream"),
		DatabaseURL:       os.Getenv("RINGVIEW_DATABASE_URL"),
		NATSURL:           os.Getenv("RINGVIEW_NATS_URL"),
		AuthToken:         os.Getenv("RINGVIEW_AUTH_TOKEN"),
		ArchiveS3Bucket:   os.Getenv("RINGVIEW_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("RINGVIEW_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("RINGVIEW_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("RINGVIEW_ARCHIVE_S3_KEY", "ringview/cases.jsonl"),
		ArchiveFile:       os.Getenv("RINGVIEW_ARCHIVE_FILE"),
	}

	var err error
	if c.BackoffBase, err = envDuration("RINGVIEW_BACKOFF_BASE", time.Second); err != nil {
		return nil, err
	}
	if c.HeartbeatInterval, err = envDuration("RINGVIEW_HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if c.ArchiveInterval, err = envDuration("RINGVIEW_ARCHIVE_INTERVAL", 3*time.Minute); err != nil {
		return nil, err
	}

	c.MaxAttempts = 5
	if v := os.Getenv("RINGVIEW_MAX_ATTEMPTS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &c.MaxAttempts); err != nil {
			return nil, fmt.Errorf("RINGVIEW_MAX_ATTEMPTS: %w", err)
		}
	}

	if path := os.Getenv("RINGVIEW_LAYOUT_FILE"); path != "" {
		if err := loadLayoutFile(path, &c.Layout); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func loadLayoutFile(path string, layout *Layout) error {
	if _, err := toml.DecodeFile(path, layout); err != nil {
		return fmt.Errorf("loading layout file %s: %w", path, err)
	}
	return nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
