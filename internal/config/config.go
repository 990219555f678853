package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string // TASKGRID_DATABASE_URL (required; "memory://" keeps tasks in process)
	GRPCAddr    string // TASKGRID_GRPC_ADDR (default ":9090")
	HTTPAddr    string // TASKGRID_HTTP_ADDR (default ":8080")
	NATSURL     string // TASKGRID_NATS_URL (optional, empty = no events)
	AuthToken   string // TASKGRID_AUTH_TOKEN (optional, empty = auth disabled)

	LogLevel        slog.Level    // TASKGRID_LOG_LEVEL (debug|info|warn|error, default info)
	LogFormat       string        // TASKGRID_LOG_FORMAT (text|json, default text)
	ShutdownTimeout time.Duration // TASKGRID_SHUTDOWN_TIMEOUT (default 10s)

	// Sync settings
	SyncInterval   time.Duration // TASKGRID_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // TASKGRID_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // TASKGRID_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // TASKGRID_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // TASKGRID_SYNC_S3_KEY (default "taskgrid/backup.jsonl")
	SyncFile       string        // TASKGRID_SYNC_FILE (enables a local file backup when set)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("TASKGRID_DATABASE_URL"),
		GRPCAddr:       envOrDefault("TASKGRID_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("TASKGRID_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("TASKGRID_NATS_URL"),
		AuthToken:      os.Getenv("TASKGRID_AUTH_TOKEN"),
		LogFormat:      envOrDefault("TASKGRID_LOG_FORMAT", "text"),
		SyncS3Bucket:   os.Getenv("TASKGRID_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("TASKGRID_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("TASKGRID_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("TASKGRID_SYNC_S3_KEY", "taskgrid/backup.jsonl"),
		SyncFile:       os.Getenv("TASKGRID_SYNC_FILE"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TASKGRID_DATABASE_URL is required")
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("TASKGRID_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("TASKGRID_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat = strings.ToLower(c.LogFormat); c.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("TASKGRID_LOG_FORMAT: unknown format %q", c.LogFormat)
	}

	var err error
	if c.ShutdownTimeout, err = durationEnv("TASKGRID_SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = durationEnv("TASKGRID_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}

	return c, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// InMemory reports whether the server should run on the in-process store.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}

// MemoryDatabaseURL selects the in-process store instead of Postgres.
const MemoryDatabaseURL = "memory://"

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
