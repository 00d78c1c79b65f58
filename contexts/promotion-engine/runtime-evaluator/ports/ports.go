// Package ports defines what the Runtime Evaluator depends on:
// the Provider's active-promotion read path, the store's cooldown and
// reward queries, a segment membership lookup, the rule engine, and
// the grant service (spec.md §4.5).
package ports

import (
	"context"
	"time"

	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"
	providerdomain "promoengine/contexts/promotion-engine/promotion-provider/domain"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// Provider is the unified active-promotions read path.
type Provider interface {
	ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]providerdomain.ActivePromotion, error)
}

// SegmentService resolves a contact's segment membership (spec.md §1:
// an external dependency, interface-level only).
type SegmentService interface {
	SegmentsForContact(ctx context.Context, contactID, countryISO string) (map[string]struct{}, error)
}

// RuleEngine evaluates a single named rule from a compiled workflow
// against an evaluation context. A rule-engine error is never fatal to
// the request; callers treat it as a non-match (spec.md §4.5 step 5,
// §5 "Cancellation & timeouts").
type RuleEngine interface {
	Evaluate(ctx context.Context, workflow []byte, ruleName string, evalCtx map[string]any) (bool, error)
}

// Store is the cooldown/reward/tier subset of the promotion store the
// evaluator reads.
type Store interface {
	TiersForVersion(ctx context.Context, versionID string) ([]storeentities.RuleTier, error)
	GroupsForTier(ctx context.Context, tierID string) ([]storeentities.RuleExpressionGroup, error)
	LastGranted(ctx context.Context, contactID, promotionID string) (storeentities.ContactReward, bool, error)
	LastGrantedForTier(ctx context.Context, contactID, promotionID string, tierLevel int) (storeentities.ContactReward, bool, error)
	ExistsGrantedForEvent(ctx context.Context, contactID, promotionID, sourceEventID string) (bool, error)
	GroupRewards(ctx context.Context, groupID string) ([]storeentities.Reward, error)
	GlobalRewards(ctx context.Context, promotionID string) ([]storeentities.Reward, error)
}

// GrantService persists the ContactReward rows for a fired group
// (spec.md §4.6).
type GrantService interface {
	Grant(ctx context.Context, input GrantInput) ([]storeentities.ContactReward, error)
}

// GrantInput is the Grant call's full argument set, grouped into a
// struct because spec.md §4.5 step 5's call site already carries nine
// distinct values.
type GrantInput struct {
	ContactID         string
	PromotionID       string
	VersionID         string
	TierLevel         int
	ExpressionGroupID string
	RewardIDs         []string
	EventContext      map[string]any
	SourceEventID     string
	GrantedAt         time.Time
	TierCooldownDays  *int
	GlobalCooldownDays int
}

// CacheWarmer is the narrow cache dependency the evaluator uses to
// re-warm on a successful grant (spec.md §4.5 step 5: "warm the cache
// for (promotion, version)").
type CacheWarmer interface {
	Warm(ctx context.Context, entry cacheports.Entry) error
}
