package application

import (
	"context"
	"testing"
	"time"

	cachememory "promoengine/contexts/promotion-engine/promotion-cache/adapters/memory"
	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"
	storememory "promoengine/contexts/promotion-engine/promotion-store/adapters/memory"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

func TestActivePromotionsPrefersCacheHit(t *testing.T) {
	cache := cachememory.NewStore()
	store := storememory.NewStore()
	ctx := context.Background()

	if err := store.CreatePromotion(ctx, storeentities.Promotion{PromotionID: "promo_1", Name: "promo_1"}); err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	version := storeentities.PromotionVersion{VersionID: "v1", PromotionID: "promo_1", Version: 1, CountryISO: "US"}
	if err := store.CreateDraftVersion(ctx, version, nil, nil); err != nil {
		t.Fatalf("create draft version failed: %v", err)
	}
	if err := cache.Warm(ctx, cacheports.Entry{
		PromotionID: "promo_1", Country: "US", Version: 1,
		Workflow: []byte(`{"WorkflowName":"w"}`), Manifest: []byte(`{}`),
	}); err != nil {
		t.Fatalf("warm cache failed: %v", err)
	}

	service := NewService(cache, store, nil)
	results, err := service.ActivePromotions(ctx, "us", time.Now().UTC())
	if err != nil {
		t.Fatalf("active promotions failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].FromCache {
		t.Fatal("expected the result to be served from cache")
	}
	if results[0].Version.VersionID != "v1" {
		t.Fatalf("expected cache hit to resolve the store's version id, got %q", results[0].Version.VersionID)
	}
}

func TestActivePromotionsFallsBackToStoreOnCacheMiss(t *testing.T) {
	cache := cachememory.NewStore() // never warmed
	store := storememory.NewStore()
	ctx := context.Background()

	if err := store.CreatePromotion(ctx, storeentities.Promotion{PromotionID: "promo_2", Name: "promo_2"}); err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	version := storeentities.PromotionVersion{
		VersionID: "v1", PromotionID: "promo_2", Version: 1, CountryISO: "US",
		WorkflowPayload: []byte(`{}`), ManifestPayload: []byte(`{}`),
	}
	if err := store.CreateDraftVersion(ctx, version, nil, nil); err != nil {
		t.Fatalf("create draft version failed: %v", err)
	}
	if err := store.PublishVersion(ctx, "v1"); err != nil {
		t.Fatalf("publish version failed: %v", err)
	}

	service := NewService(cache, store, nil)
	results, err := service.ActivePromotions(ctx, "US", time.Now().UTC())
	if err != nil {
		t.Fatalf("active promotions failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result from the store fallback, got %d", len(results))
	}
	if results[0].FromCache {
		t.Fatal("expected the fallback result to not be marked from cache")
	}
}

func TestActivePromotionsCacheHitDroppedOutsideWindow(t *testing.T) {
	cache := cachememory.NewStore()
	store := storememory.NewStore()
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	manifest := []byte(`{"window":{"validToUtc":"` + past.Format(time.RFC3339) + `"}}`)
	if err := cache.Warm(ctx, cacheports.Entry{PromotionID: "promo_3", Country: "US", Version: 1, Workflow: []byte(`{}`), Manifest: manifest}); err != nil {
		t.Fatalf("warm cache failed: %v", err)
	}

	service := NewService(cache, store, nil)
	results, err := service.ActivePromotions(ctx, "US", time.Now().UTC())
	if err != nil {
		t.Fatalf("active promotions failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected expired cache entry to be dropped, got %v", results)
	}
}
