// Package application implements the Publisher: flips a draft to
// published, writes the outbox event in the same transaction, and
// best-effort warms the cache after commit (spec.md §4.7, §4.8).
package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	"promoengine/contexts/promotion-engine/publisher/domain"
	"promoengine/contexts/promotion-engine/publisher/ports"
)

func storeOutboxMessage(messageID string, occurredAt time.Time, payload []byte) storeentities.OutboxMessage {
	return storeentities.OutboxMessage{
		MessageID:  messageID,
		OccurredAt: occurredAt,
		Type:       "promotion.published",
		Payload:    payload,
	}
}

// PublishResult is the publish endpoint's success body (spec.md §6:
// "{promotionId, countryIso, version}").
type PublishResult struct {
	PromotionID string
	CountryISO  string
	Version     int
}

type Publisher struct {
	Store       ports.Store
	Cache       ports.Cache
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (p Publisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

type publishedEventPayload struct {
	PromotionID string `json:"promotionId"`
	CountryISO  string `json:"countryIso"`
	Version     int    `json:"version"`
}

// Publish flips the latest version for (promotionID, countryISO) to
// published. Publishing an already-published version is a no-op
// (spec.md §4.8: "Publishing is one-way. Re-publishing the same
// version is a no-op.").
func (p Publisher) Publish(ctx context.Context, promotionID, countryISO string) (PublishResult, error) {
	country := strings.ToUpper(strings.TrimSpace(countryISO))

	version, found, err := p.Store.LatestVersion(ctx, promotionID, country)
	if err != nil {
		return PublishResult{}, err
	}
	if !found {
		return PublishResult{}, domain.ErrNoVersionToPublish
	}

	if !version.IsDraft {
		return PublishResult{PromotionID: promotionID, CountryISO: country, Version: version.Version}, nil
	}

	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}

	payload, err := json.Marshal(publishedEventPayload{PromotionID: promotionID, CountryISO: country, Version: version.Version})
	if err != nil {
		return PublishResult{}, err
	}
	messageID, err := p.IDGenerator.NewID(ctx)
	if err != nil {
		return PublishResult{}, err
	}

	if err := p.Store.PublishVersionWithOutbox(ctx, version.VersionID, storeOutboxMessage(messageID, now, payload)); err != nil {
		return PublishResult{}, err
	}

	if p.Cache != nil {
		if err := p.Cache.Warm(ctx, cacheports.Entry{
			PromotionID: promotionID,
			Country:     country,
			Version:     version.Version,
			Workflow:    version.WorkflowPayload,
			Manifest:    version.ManifestPayload,
		}); err != nil {
			// Best-effort per spec.md §4.7: a warm failure never rolls
			// the publish back.
			p.logger().Warn("post-publish cache warm failed",
				"event", "publish_cache_warm_failed", "module", "publisher", "layer", "application",
				"promotionId", promotionID, "country", country, "version", version.Version, "error", err)
		}
	}

	p.logger().Info("promotion version published",
		"event", "promotion_published", "module", "publisher", "layer", "application",
		"promotionId", promotionID, "country", country, "version", version.Version)

	return PublishResult{PromotionID: promotionID, CountryISO: country, Version: version.Version}, nil
}
