package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store backends for forecast history and the leaderboard.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SPC storm report feed.
	ReportsBaseURL   string
	ReportsTimeout   time.Duration
	ReportsCacheSize int

	StoreBackend string
	StorePath    string
	RedisURL     string
	RedisPrefix  string

	// Verified results are published when enabled.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Results are queued and written in batches of up to PublishBatchSize,
	// waiting at most PublishFlushInterval to fill a batch.
	PublishBatchSize     int
	PublishFlushInterval time.Duration
	PublishQueueSize     int

	// Imagery service health probe. Empty URL disables it.
	ImageryBaseURL string
	ImageryTimeout time.Duration

	DefaultPlayer string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	reportsTimeout, err := parseDuration("REPORTS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	imageryTimeout, err := parseDuration("IMAGERY_TIMEOUT", "3s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	queueSize, err := parsePositiveInt("PUBLISH_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReportsBaseURL:   sharedcfg.EnvOrDefault("REPORTS_BASE_URL", "https://www.spc.noaa.gov/climo/reports"),
		ReportsTimeout:   reportsTimeout,
		ReportsCacheSize: parseReportsCacheSize(),

		StoreBackend: sharedcfg.EnvOrDefault("STORE_BACKEND", StoreSQLite),
		StorePath:    sharedcfg.EnvOrDefault("STORE_PATH", "data/verifier.db"),
		RedisURL:     os.Getenv("REDIS_URL"),
		RedisPrefix:  sharedcfg.EnvOrDefault("REDIS_PREFIX", "storm-verify:"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "forecast-verifications"),

		PublishBatchSize:     batchSize,
		PublishFlushInterval: flushInterval,
		PublishQueueSize:     queueSize,

		ImageryBaseURL: os.Getenv("IMAGERY_BASE_URL"),
		ImageryTimeout: imageryTimeout,

		DefaultPlayer: sharedcfg.EnvOrDefault("DEFAULT_PLAYER", "Forecaster"),
	}

	if cfg.ReportsBaseURL == "" {
		return nil, errors.New("REPORTS_BASE_URL is required")
	}
	switch cfg.StoreBackend {
	case StoreSQLite:
		if cfg.StorePath == "" {
			return nil, errors.New("STORE_PATH is required for the sqlite store")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis store")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want sqlite, redis, or memory", cfg.StoreBackend)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseReportsCacheSize() int {
	if s := os.Getenv("REPORTS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 64
}
