package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCacheCapacity   = 1000
	defaultAggregateWindow = 50
	defaultTickInterval    = 5 * time.Second
	defaultErrorBackoff    = 10 * time.Second
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Channels is the set of chat channels to join, lower-cased.
	Channels []string

	VectorizerPath string
	ClassifierPath string

	CacheCapacity   int
	AggregateWindow int
	TickInterval    time.Duration
	ErrorBackoff    time.Duration

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		VectorizerPath: getEnv("VECTORIZER_PATH", "vectorizer.gob"),
		ClassifierPath: getEnv("CLASSIFIER_PATH", "classifier.gob"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	channels := getEnv("TWITCH_CHANNELS", "")
	if channels == "" {
		return nil, fmt.Errorf("TWITCH_CHANNELS is required")
	}
	for _, ch := range strings.Split(channels, ",") {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if ch != "" {
			cfg.Channels = append(cfg.Channels, ch)
		}
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("TWITCH_CHANNELS must name at least one channel")
	}

	var err error
	cfg.CacheCapacity, err = getEnvInt("CACHE_CAPACITY", defaultCacheCapacity)
	if err != nil {
		return nil, err
	}
	if cfg.CacheCapacity <= 0 {
		return nil, fmt.Errorf("CACHE_CAPACITY must be positive, got %d", cfg.CacheCapacity)
	}

	cfg.AggregateWindow, err = getEnvInt("AGGREGATE_WINDOW", defaultAggregateWindow)
	if err != nil {
		return nil, err
	}
	if cfg.AggregateWindow <= 0 {
		return nil, fmt.Errorf("AGGREGATE_WINDOW must be positive, got %d", cfg.AggregateWindow)
	}
	if cfg.AggregateWindow > cfg.CacheCapacity {
		return nil, fmt.Errorf("AGGREGATE_WINDOW (%d) cannot exceed CACHE_CAPACITY (%d)", cfg.AggregateWindow, cfg.CacheCapacity)
	}

	cfg.TickInterval, err = getEnvDuration("TICK_INTERVAL", defaultTickInterval)
	if err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %v", cfg.TickInterval)
	}

	cfg.ErrorBackoff, err = getEnvDuration("ERROR_BACKOFF", defaultErrorBackoff)
	if err != nil {
		return nil, err
	}
	if cfg.ErrorBackoff <= 0 {
		return nil, fmt.Errorf("ERROR_BACKOFF must be positive, got %v", cfg.ErrorBackoff)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
