package application

import (
	"context"
	"testing"

	cachememory "promoengine/contexts/promotion-engine/promotion-cache/adapters/memory"
	storememory "promoengine/contexts/promotion-engine/promotion-store/adapters/memory"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	"promoengine/contexts/promotion-engine/publisher/domain"
)

func seedDraftVersion(t *testing.T, store *storememory.Store, promotionID, country string) storeentities.PromotionVersion {
	t.Helper()
	ctx := context.Background()
	if err := store.CreatePromotion(ctx, storeentities.Promotion{PromotionID: promotionID, Name: promotionID}); err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	version := storeentities.PromotionVersion{
		VersionID:       promotionID + "-v1",
		PromotionID:     promotionID,
		Version:         1,
		CountryISO:      country,
		IsDraft:         true,
		WorkflowPayload: []byte(`{"WorkflowName":"x","Rules":[]}`),
		ManifestPayload: []byte(`{}`),
	}
	if err := store.CreateDraftVersion(ctx, version, nil, nil); err != nil {
		t.Fatalf("create draft version failed: %v", err)
	}
	return version
}

func TestPublishFlipsDraftToPublished(t *testing.T) {
	store := storememory.NewStore()
	cache := cachememory.NewStore()
	seedDraftVersion(t, store, "promo_1", "US")

	publisher := Publisher{Store: store, Cache: cache, IDGenerator: store, Clock: store}
	result, err := publisher.Publish(context.Background(), "promo_1", "us")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if result.Version != 1 || result.CountryISO != "US" {
		t.Fatalf("unexpected publish result %+v", result)
	}

	version, found, err := store.GetVersion(context.Background(), "promo_1-v1")
	if err != nil || !found {
		t.Fatalf("expected version to exist, err=%v found=%v", err, found)
	}
	if version.IsDraft {
		t.Fatal("expected version to no longer be draft after publish")
	}
}

func TestPublishIsNoOpOnRepublish(t *testing.T) {
	store := storememory.NewStore()
	cache := cachememory.NewStore()
	seedDraftVersion(t, store, "promo_2", "US")

	publisher := Publisher{Store: store, Cache: cache, IDGenerator: store, Clock: store}
	if _, err := publisher.Publish(context.Background(), "promo_2", "US"); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	pendingBefore, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}

	result, err := publisher.Publish(context.Background(), "promo_2", "US")
	if err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if result.Version != 1 {
		t.Fatalf("expected version 1, got %d", result.Version)
	}

	pendingAfter, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pendingAfter) != len(pendingBefore) {
		t.Fatalf("expected re-publish to append no new outbox message, before=%d after=%d", len(pendingBefore), len(pendingAfter))
	}
}

func TestPublishWarmsCacheAfterPublish(t *testing.T) {
	store := storememory.NewStore()
	cache := cachememory.NewStore()
	seedDraftVersion(t, store, "promo_3", "US")

	publisher := Publisher{Store: store, Cache: cache, IDGenerator: store, Clock: store}
	if _, err := publisher.Publish(context.Background(), "promo_3", "US"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	workflow, _, resolvedVersion, ok, err := cache.GetWorkflow(context.Background(), "promo_3", "US", 0)
	if err != nil {
		t.Fatalf("get workflow failed: %v", err)
	}
	if !ok {
		t.Fatal("expected the cache to be warmed after publish")
	}
	if resolvedVersion != 1 {
		t.Fatalf("expected resolved version 1, got %d", resolvedVersion)
	}
	if len(workflow) == 0 {
		t.Fatal("expected non-empty cached workflow bytes")
	}
}

func TestPublishReportsNoVersionToPublish(t *testing.T) {
	store := storememory.NewStore()
	publisher := Publisher{Store: store, IDGenerator: store, Clock: store}

	_, err := publisher.Publish(context.Background(), "missing_promo", "US")
	if err != domain.ErrNoVersionToPublish {
		t.Fatalf("expected ErrNoVersionToPublish, got %v", err)
	}
}
