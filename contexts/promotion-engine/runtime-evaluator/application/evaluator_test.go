package application

import (
	"context"
	"testing"
	"time"

	storememory "promoengine/contexts/promotion-engine/promotion-store/adapters/memory"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	providerdomain "promoengine/contexts/promotion-engine/promotion-provider/domain"
	"promoengine/contexts/promotion-engine/runtime-evaluator/domain"
)

// fakeProvider returns a fixed set of active promotions regardless of
// country/asOf, letting tests control candidates directly.
type fakeProvider struct {
	active []providerdomain.ActivePromotion
}

func (f fakeProvider) ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]providerdomain.ActivePromotion, error) {
	return f.active, nil
}

type fakeSegments struct {
	segments map[string]struct{}
}

func (f fakeSegments) SegmentsForContact(ctx context.Context, contactID, countryISO string) (map[string]struct{}, error) {
	return f.segments, nil
}

// fakeRuleEngine fires whatever ruleNames are listed, ignoring the
// workflow bytes and the evaluation context.
type fakeRuleEngine struct {
	firing map[string]bool
}

func (f fakeRuleEngine) Evaluate(ctx context.Context, workflow []byte, ruleName string, evalCtx map[string]any) (bool, error) {
	return f.firing[ruleName], nil
}

func buildPromotion(store *storememory.Store, promotionID string, globalCooldownDays int, tierLevel, groupOrder int, rewardID string) (storeentities.PromotionVersion, storeentities.RuleTier) {
	ctx := context.Background()
	promotion := storeentities.Promotion{PromotionID: promotionID, Name: promotionID, GlobalCooldownDays: globalCooldownDays}
	_ = store.CreatePromotion(ctx, promotion)

	version := storeentities.PromotionVersion{
		VersionID:          promotionID + "-v1",
		PromotionID:        promotionID,
		Version:            1,
		CountryISO:         "US",
		IsDraft:            false,
		GlobalCooldownDays: globalCooldownDays,
	}
	tier := storeentities.RuleTier{TierID: promotionID + "-t" + itoa(tierLevel), PromotionID: promotionID, VersionID: version.VersionID, TierLevel: tierLevel, Order: 0}
	group := storeentities.RuleExpressionGroup{GroupID: promotionID + "-g", PromotionID: promotionID, TierID: tier.TierID, Order: groupOrder}
	_ = store.CreateDraftVersion(ctx, version, []storeentities.RuleTier{tier}, []storeentities.RuleExpressionGroup{group})

	if rewardID != "" {
		reward := storeentities.Reward{RewardID: rewardID, Name: rewardID, Kind: storeentities.RewardKindPoints, Active: true}
		_ = store.PutReward(ctx, reward)
		_ = store.LinkGroupRewards(ctx, group.GroupID, []string{rewardID})
	}
	return version, tier
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// markAllPendingGranted simulates the downstream system resolving a
// grant's real value: only once a grant is Granted do the idempotency
// and cooldown gates (ExistsGrantedForEvent, LastGranted) see it.
func markAllPendingGranted(t *testing.T, store *storememory.Store) {
	t.Helper()
	pending, err := store.ListPendingGrantsOlderThan(context.Background(), time.Now().UTC().Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("list pending grants failed: %v", err)
	}
	for _, g := range pending {
		if err := store.UpdateGrantStatus(context.Background(), g.GrantID, storeentities.ContactRewardStatusGranted); err != nil {
			t.Fatalf("mark granted failed: %v", err)
		}
	}
}

func newEvaluator(store *storememory.Store, provider fakeProvider, segments fakeSegments, ruleEngine fakeRuleEngine) Evaluator {
	grants := GrantService{Store: store, IDGenerator: store}
	return Evaluator{
		Provider:   provider,
		Segments:   segments,
		Store:      store,
		RuleEngine: ruleEngine,
		Grants:     grants,
	}
}

func TestEvaluateGrantsTier1OnMatch(t *testing.T) {
	store := storememory.NewStore()
	version, tier := buildPromotion(store, "promo_1", 0, 1, 0, "reward_1")

	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: "promo_1", GlobalCooldownDays: 0}, Version: version, Workflow: []byte(`{}`), Manifest: []byte(`{}`)},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{ruleName(tier.TierLevel, 0): true}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	req := domain.EvaluationRequest{ContactID: "contact_1", CountryISO: "us", AsOfUtc: time.Now().UTC(), Event: domain.EventContext{Fields: map[string]any{}}}
	results, err := evaluator.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].RewardIDs[0] != "reward_1" {
		t.Fatalf("expected reward_1, got %v", results[0].RewardIDs)
	}
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	store := storememory.NewStore()
	evaluator := newEvaluator(store, fakeProvider{}, fakeSegments{}, fakeRuleEngine{})

	_, err := evaluator.Evaluate(context.Background(), domain.EvaluationRequest{})
	if err != domain.ErrInvalidEvaluationRequest {
		t.Fatalf("expected ErrInvalidEvaluationRequest, got %v", err)
	}
}

func TestEvaluateIsIdempotentOnSameSourceEvent(t *testing.T) {
	store := storememory.NewStore()
	version, tier := buildPromotion(store, "promo_2", 0, 1, 0, "reward_1")

	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: "promo_2"}, Version: version, Workflow: []byte(`{}`), Manifest: []byte(`{}`)},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{ruleName(tier.TierLevel, 0): true}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	req := domain.EvaluationRequest{
		ContactID: "contact_2", CountryISO: "US", AsOfUtc: time.Now().UTC(),
		Event: domain.EventContext{EventID: "evt-1", Fields: map[string]any{}},
	}

	first, err := evaluator.Evaluate(context.Background(), req)
	if err != nil || len(first) != 1 {
		t.Fatalf("expected first evaluate to grant, got %v err=%v", first, err)
	}
	markAllPendingGranted(t, store)

	second, err := evaluator.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("second evaluate failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected replay of the same event to grant nothing, got %v", second)
	}
}

func TestEvaluateTier1RespectsCooldown(t *testing.T) {
	store := storememory.NewStore()
	version, tier := buildPromotion(store, "promo_3", 30, 1, 0, "reward_1")

	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: "promo_3", GlobalCooldownDays: 30}, Version: version, Workflow: []byte(`{}`), Manifest: []byte(`{}`)},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{ruleName(tier.TierLevel, 0): true}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	now := time.Now().UTC()
	first, err := evaluator.Evaluate(context.Background(), domain.EvaluationRequest{
		ContactID: "contact_3", CountryISO: "US", AsOfUtc: now, Event: domain.EventContext{Fields: map[string]any{}},
	})
	if err != nil || len(first) != 1 {
		t.Fatalf("expected first grant to succeed, got %v err=%v", first, err)
	}
	markAllPendingGranted(t, store)

	second, err := evaluator.Evaluate(context.Background(), domain.EvaluationRequest{
		ContactID: "contact_3", CountryISO: "US", AsOfUtc: now.Add(24 * time.Hour), Event: domain.EventContext{Fields: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("second evaluate failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected tier-1 cooldown to block the next grant, got %v", second)
	}
}

func TestEvaluateSegmentGateBlocksNonMembers(t *testing.T) {
	store := storememory.NewStore()
	version, tier := buildPromotion(store, "promo_4", 0, 1, 0, "reward_1")

	manifest := []byte(`{"segments":["vip"]}`)
	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: "promo_4"}, Version: version, Workflow: []byte(`{}`), Manifest: manifest},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{ruleName(tier.TierLevel, 0): true}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	results, err := evaluator.Evaluate(context.Background(), domain.EvaluationRequest{
		ContactID: "contact_4", CountryISO: "US", AsOfUtc: time.Now().UTC(), Event: domain.EventContext{Fields: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected segment gate to block the grant, got %v", results)
	}
}

// TestEvaluateNonExclusiveContinuesTierWalkAfterFirstAward covers
// spec.md §4.5 step 5: a non-exclusive fire must continue the tier
// walk, not stop it, so a promotion whose tier-2 prerequisite is
// already satisfied can award both tier 1 and tier 2 in one call.
func TestEvaluateNonExclusiveContinuesTierWalkAfterFirstAward(t *testing.T) {
	store := storememory.NewStore()
	ctx := context.Background()
	promotionID := "promo_multi"

	_ = store.CreatePromotion(ctx, storeentities.Promotion{PromotionID: promotionID, Name: promotionID, GlobalCooldownDays: 0})
	version := storeentities.PromotionVersion{
		VersionID: promotionID + "-v1", PromotionID: promotionID, Version: 1, CountryISO: "US", IsDraft: false,
	}
	tier1 := storeentities.RuleTier{TierID: promotionID + "-t1", PromotionID: promotionID, VersionID: version.VersionID, TierLevel: 1, Order: 0}
	tier2 := storeentities.RuleTier{TierID: promotionID + "-t2", PromotionID: promotionID, VersionID: version.VersionID, TierLevel: 2, Order: 1}
	group1 := storeentities.RuleExpressionGroup{GroupID: promotionID + "-g1", PromotionID: promotionID, TierID: tier1.TierID, Order: 0}
	group2 := storeentities.RuleExpressionGroup{GroupID: promotionID + "-g2", PromotionID: promotionID, TierID: tier2.TierID, Order: 0}
	if err := store.CreateDraftVersion(ctx, version, []storeentities.RuleTier{tier1, tier2}, []storeentities.RuleExpressionGroup{group1, group2}); err != nil {
		t.Fatalf("create draft version failed: %v", err)
	}
	_ = store.PutReward(ctx, storeentities.Reward{RewardID: "reward_1", Name: "reward_1", Kind: storeentities.RewardKindPoints, Active: true})
	_ = store.PutReward(ctx, storeentities.Reward{RewardID: "reward_2", Name: "reward_2", Kind: storeentities.RewardKindPoints, Active: true})
	_ = store.LinkGroupRewards(ctx, group1.GroupID, []string{"reward_1"})
	_ = store.LinkGroupRewards(ctx, group2.GroupID, []string{"reward_2"})

	// Tier 2's prerequisite (a Granted tier-1 reward) is already
	// satisfied from a prior evaluation.
	if err := store.CreateGrants(ctx, []storeentities.ContactReward{{
		GrantID: "grant_prior", ContactID: "contact_multi", PromotionID: promotionID,
		TierLevel: 1, GrantedAt: time.Now().UTC().Add(-48 * time.Hour), Status: storeentities.ContactRewardStatusGranted,
	}}); err != nil {
		t.Fatalf("seed prior grant failed: %v", err)
	}

	manifest := []byte(`{"policies":{"exclusivePerEvent":false}}`)
	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: promotionID}, Version: version, Workflow: []byte(`{}`), Manifest: manifest},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{
		ruleName(1, 0): true,
		ruleName(2, 0): true,
	}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	results, err := evaluator.Evaluate(ctx, domain.EvaluationRequest{
		ContactID: "contact_multi", CountryISO: "US", AsOfUtc: time.Now().UTC(),
		Event: domain.EventContext{EventID: "evt-multi", Fields: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both tier 1 and tier 2 to fire for a non-exclusive promotion, got %d results: %v", len(results), results)
	}
	if results[0].AwardedTier != 1 || results[1].AwardedTier != 2 {
		t.Fatalf("expected tiers 1 then 2 in order, got %+v", results)
	}
}

func TestEvaluateExclusivePerEventStopsAtFirstPromotion(t *testing.T) {
	store := storememory.NewStore()
	versionA, tierA := buildPromotion(store, "promo_a", 0, 1, 0, "reward_a")
	versionB, tierB := buildPromotion(store, "promo_b", 0, 1, 0, "reward_b")

	manifest := []byte(`{"policies":{"exclusivePerEvent":true}}`)
	provider := fakeProvider{active: []providerdomain.ActivePromotion{
		{Promotion: storeentities.Promotion{PromotionID: "promo_a"}, Version: versionA, Workflow: []byte(`{}`), Manifest: manifest},
		{Promotion: storeentities.Promotion{PromotionID: "promo_b"}, Version: versionB, Workflow: []byte(`{}`), Manifest: manifest},
	}}
	ruleEngine := fakeRuleEngine{firing: map[string]bool{
		ruleName(tierA.TierLevel, 0): true,
		ruleName(tierB.TierLevel, 0): true,
	}}
	evaluator := newEvaluator(store, provider, fakeSegments{segments: map[string]struct{}{}}, ruleEngine)

	results, err := evaluator.Evaluate(context.Background(), domain.EvaluationRequest{
		ContactID: "contact_5", CountryISO: "US", AsOfUtc: time.Now().UTC(), Event: domain.EventContext{Fields: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exclusivePerEvent to stop after the first promotion, got %d results", len(results))
	}
}
