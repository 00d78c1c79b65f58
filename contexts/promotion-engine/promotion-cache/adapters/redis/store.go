// Package redis backs the Promotion Cache with github.com/redis/go-redis/v9,
// using exactly the key layout spec.md §4.2 names.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"promoengine/contexts/promotion-engine/promotion-cache/ports"
)

const defaultKeyExpiry = 24 * time.Hour

// Store adapts a *redis.Client to the Cache port.
type Store struct {
	client    *redis.Client
	keyExpiry time.Duration
	logger    *slog.Logger
}

type Option func(*Store)

func WithKeyExpiry(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.keyExpiry = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = resolveLogger(logger) }
}

func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, keyExpiry: defaultKeyExpiry, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

func workflowKey(country, promotionID string, version int) string {
	return fmt.Sprintf("wf:%s:%s:v%d", country, promotionID, version)
}

func manifestKey(country, promotionID string, version int) string {
	return fmt.Sprintf("wf:manifest:%s:%s:v%d", country, promotionID, version)
}

func indexKey(country string) string {
	return fmt.Sprintf("wf:index:%s", country)
}

func activeKey(country string) string {
	return fmt.Sprintf("wf:active:%s", country)
}

func metadataKey(promotionID string) string {
	return fmt.Sprintf("wf:metadata:%s", promotionID)
}

// Warm writes the five keys spec.md §4.2 names in a single pipelined
// round-trip; the promotion appears atomically to readers on success.
func (s *Store) Warm(ctx context.Context, entry ports.Entry) error {
	country := normalizeCountry(entry.Country)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, workflowKey(country, entry.PromotionID, entry.Version), entry.Workflow, s.keyExpiry)
	pipe.Set(ctx, manifestKey(country, entry.PromotionID, entry.Version), entry.Manifest, s.keyExpiry)
	pipe.ZAdd(ctx, indexKey(country), redis.Z{Score: float64(entry.Version), Member: entry.PromotionID})
	pipe.SAdd(ctx, activeKey(country), entry.PromotionID)
	if len(entry.Metadata) > 0 {
		fields := make(map[string]any, len(entry.Metadata))
		for k, v := range entry.Metadata {
			fields[k] = v
		}
		pipe.HSet(ctx, metadataKey(entry.PromotionID), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("promotion cache warm failed",
			"event", "cache_warm_error", "module", "promotion-cache", "layer", "adapter",
			"promotionId", entry.PromotionID, "country", country, "version", entry.Version, "error", err)
		return err
	}
	return nil
}

func (s *Store) ActivePromotions(ctx context.Context, country string) ([]string, error) {
	country = normalizeCountry(country)
	members, err := s.client.SMembers(ctx, activeKey(country)).Result()
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) GetWorkflow(ctx context.Context, promotionID, country string, version int) ([]byte, []byte, int, bool, error) {
	country = normalizeCountry(country)
	resolved := version
	if resolved == 0 {
		score, err := s.client.ZScore(ctx, indexKey(country), promotionID).Result()
		if err == redis.Nil {
			return nil, nil, 0, false, nil
		}
		if err != nil {
			return nil, nil, 0, false, err
		}
		resolved = int(score)
	}

	workflow, err := s.client.Get(ctx, workflowKey(country, promotionID, resolved)).Bytes()
	if err == redis.Nil {
		return nil, nil, 0, false, nil
	}
	if err != nil {
		return nil, nil, 0, false, err
	}
	manifest, err := s.client.Get(ctx, manifestKey(country, promotionID, resolved)).Bytes()
	if err == redis.Nil {
		return nil, nil, 0, false, nil
	}
	if err != nil {
		return nil, nil, 0, false, err
	}
	return workflow, manifest, resolved, true, nil
}

func (s *Store) Invalidate(ctx context.Context, promotionID, country string) error {
	country = normalizeCountry(country)
	score, err := s.client.ZScore(ctx, indexKey(country), promotionID).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.client.Pipeline()
	if err != redis.Nil {
		version := int(score)
		pipe.Del(ctx, workflowKey(country, promotionID, version))
		pipe.Del(ctx, manifestKey(country, promotionID, version))
	}
	pipe.ZRem(ctx, indexKey(country), promotionID)
	pipe.SRem(ctx, activeKey(country), promotionID)
	_, err = pipe.Exec(ctx)
	return err
}
