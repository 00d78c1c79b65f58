// Package config is centralized process configuration, loaded from the
// environment. Keep infra values here and pass typed config into builders.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the promotion engine's process configuration.
type Config struct {
	ServiceName string
	HTTPPort    string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheKeyTTL   time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	SegmentServiceBaseURL string
	SegmentServiceTimeout time.Duration

	RuleEngineCacheCapacity int
	StaleGrantHorizon       time.Duration
	OutboxBatchSize         int
	OutboxMaxRetries        uint64
}

// Load reads configuration from the environment, applying the same
// defaults the in-memory wiring uses when a variable is unset.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:             getenv("SERVICE_NAME", "promoengine"),
		HTTPPort:                getenv("HTTP_PORT", "8080"),
		PostgresDSN:             getenv("POSTGRES_DSN", ""),
		RedisAddr:               getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getenv("REDIS_PASSWORD", ""),
		KafkaTopicPrefix:        getenv("KAFKA_TOPIC_PREFIX", "promotion-engine"),
		SegmentServiceBaseURL:   getenv("SEGMENT_SERVICE_BASE_URL", ""),
		RuleEngineCacheCapacity: 512,
		StaleGrantHorizon:       30 * 24 * time.Hour,
		OutboxBatchSize:         100,
		OutboxMaxRetries:        5,
		CacheKeyTTL:             24 * time.Hour,
		SegmentServiceTimeout:   2 * time.Second,
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.RedisDB = n
		}
	}
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.KafkaBrokers = splitAndTrim(raw)
	}
	if raw := os.Getenv("RULE_ENGINE_CACHE_CAPACITY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.RuleEngineCacheCapacity = n
		}
	}
	if raw := os.Getenv("STALE_GRANT_HORIZON"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.StaleGrantHorizon = d
		}
	}
	if raw := os.Getenv("OUTBOX_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.OutboxBatchSize = n
		}
	}
	if raw := os.Getenv("OUTBOX_MAX_RETRIES"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cfg.OutboxMaxRetries = n
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
