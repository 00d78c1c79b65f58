// Package ports defines what the Publisher depends on: the store's
// draft-to-published flip and, best-effort, the promotion cache's warm
// (spec.md §4.7).
package ports

import (
	"context"
	"time"

	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// Store is the version-publish subset of the promotion store.
type Store interface {
	LatestVersion(ctx context.Context, promotionID, countryISO string) (storeentities.PromotionVersion, bool, error)
	PublishVersionWithOutbox(ctx context.Context, versionID string, message storeentities.OutboxMessage) error
}

// Cache is the warm subset of the promotion cache.
type Cache interface {
	Warm(ctx context.Context, entry cacheports.Entry) error
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type Clock interface {
	Now() time.Time
}
