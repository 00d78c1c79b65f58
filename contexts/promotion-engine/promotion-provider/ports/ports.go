// Package ports defines the dependencies the Promotion Provider reads
// from: the cache (hot path) and the store (authoritative fallback).
package ports

import (
	"context"
	"time"

	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	storeports "promoengine/contexts/promotion-engine/promotion-store/ports"
)

// Cache is the subset of the Promotion Cache port the provider reads.
type Cache interface {
	ActivePromotions(ctx context.Context, country string) ([]string, error)
	GetWorkflow(ctx context.Context, promotionID, country string, version int) (workflow, manifest []byte, resolvedVersion int, ok bool, err error)
}

// Store is the authoritative fallback, and the source of slow-changing
// promotion metadata even on a cache hit (spec.md §4.3 step 4). A cache
// hit still resolves the version row (for its versionId and window)
// from the store, since the cache layout carries only bytes and a
// version number, never the version's stable id.
type Store interface {
	GetPromotion(ctx context.Context, promotionID string) (storeentities.Promotion, bool, error)
	LatestVersion(ctx context.Context, promotionID, countryISO string) (storeentities.PromotionVersion, bool, error)
	ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]storeports.ActivePromotion, error)
}
