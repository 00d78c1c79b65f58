// Package application implements the Runtime Evaluator: the per-request
// promotion loop that gates on segment, idempotency and cooldown, walks
// tiers, fires at most one group per tier, and grants rewards (spec.md
// §4.5).
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"
	providerdomain "promoengine/contexts/promotion-engine/promotion-provider/domain"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	"promoengine/contexts/promotion-engine/runtime-evaluator/domain"
	"promoengine/contexts/promotion-engine/runtime-evaluator/ports"
)

// Evaluator wires the dependencies spec.md §4.5's pre-queries and
// per-promotion loop read from.
type Evaluator struct {
	Provider   ports.Provider
	Segments   ports.SegmentService
	Store      ports.Store
	RuleEngine ports.RuleEngine
	Grants     ports.GrantService
	Cache      ports.CacheWarmer
	Logger     *slog.Logger
}

func (e Evaluator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func ruleName(tierLevel, order int) string       { return fmt.Sprintf("tier:%d:group:%d", tierLevel, order) }
func successEvent(tierLevel, order int) string   { return fmt.Sprintf("%d:%d", tierLevel, order) }

// Evaluate runs the full pre-query + per-promotion loop described in
// spec.md §4.5 and returns every group that fired.
func (e Evaluator) Evaluate(ctx context.Context, req domain.EvaluationRequest) ([]domain.EvaluateResult, error) {
	contactID := strings.TrimSpace(req.ContactID)
	country := strings.ToUpper(strings.TrimSpace(req.CountryISO))
	if contactID == "" || len(country) != 2 || req.AsOfUtc.IsZero() {
		return nil, domain.ErrInvalidEvaluationRequest
	}

	active, err := e.Provider.ActivePromotions(ctx, country, req.AsOfUtc)
	if err != nil {
		return nil, err
	}

	segments, err := e.Segments.SegmentsForContact(ctx, contactID, country)
	if err != nil {
		e.logger().Warn("segment lookup failed, evaluating without segment data",
			"event", "segment_lookup_failed", "module", "runtime-evaluator", "layer", "application",
			"contactId", contactID, "country", country, "error", err)
		segments = map[string]struct{}{}
	}

	var results []domain.EvaluateResult
	for _, candidate := range active {
		promotionResults, stop := e.evaluatePromotion(ctx, candidate, contactID, segments, req)
		results = append(results, promotionResults...)
		if stop {
			break
		}
	}
	return results, nil
}

// evaluatePromotion runs one promotion's gate-then-tier-walk. stop
// reports whether the outer promotion loop must break (an exclusive
// grant fired).
func (e Evaluator) evaluatePromotion(
	ctx context.Context,
	candidate providerdomain.ActivePromotion,
	contactID string,
	segments map[string]struct{},
	req domain.EvaluationRequest,
) ([]domain.EvaluateResult, bool) {
	logger := e.logger()
	promotionID := candidate.Promotion.PromotionID

	manifest, manifestErr := providerdomain.ParseManifest(candidate.Manifest)

	// Step 1: segment gate.
	if manifestErr == nil && len(manifest.Segments) > 0 {
		if !intersects(segments, manifest.Segments) {
			return nil, false
		}
	}

	// Step 2: event idempotency gate.
	eventID := strings.TrimSpace(req.Event.EventID)
	if eventID != "" {
		granted, err := e.Store.ExistsGrantedForEvent(ctx, contactID, promotionID, eventID)
		if err != nil {
			logger.Warn("idempotency check failed, skipping promotion",
				"event", "idempotency_check_failed", "module", "runtime-evaluator", "layer", "application",
				"promotionId", promotionID, "error", err)
			return nil, false
		}
		if granted {
			return nil, false
		}
	}

	// Step 3: tier-1 cooldown.
	lastGranted, hasLastGranted, err := e.Store.LastGranted(ctx, contactID, promotionID)
	if err != nil {
		logger.Warn("last-granted lookup failed, skipping promotion",
			"event", "last_granted_lookup_failed", "module", "runtime-evaluator", "layer", "application",
			"promotionId", promotionID, "error", err)
		return nil, false
	}
	globalCooldownDays := candidate.Promotion.GlobalCooldownDays
	canTier1 := !hasLastGranted
	if hasLastGranted {
		cooldownUntil := storeentities.ComputeCooldownUntil(lastGranted.GrantedAt, globalCooldownDays)
		canTier1 = cooldownUntil == nil || !req.AsOfUtc.Before(*cooldownUntil)
	}

	// Step 4: exclusivity flag (default true on manifest parse failure).
	exclusive := true
	if manifestErr == nil {
		exclusive = manifest.Policies.ExclusivePerEvent
	}

	tiers, err := e.Store.TiersForVersion(ctx, candidate.Version.VersionID)
	if err != nil {
		logger.Warn("tier lookup failed, skipping promotion",
			"event", "tier_lookup_failed", "module", "runtime-evaluator", "layer", "application",
			"promotionId", promotionID, "error", err)
		return nil, false
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].TierLevel != tiers[j].TierLevel {
			return tiers[i].TierLevel < tiers[j].TierLevel
		}
		return tiers[i].Order < tiers[j].Order
	})

	var results []domain.EvaluateResult
	for _, tier := range tiers {
		if tier.TierLevel == 1 {
			if !canTier1 {
				continue
			}
		} else {
			prev, hasPrev, err := e.Store.LastGrantedForTier(ctx, contactID, promotionID, tier.TierLevel-1)
			if err != nil {
				logger.Warn("prior-tier lookup failed, skipping tier",
					"event", "prior_tier_lookup_failed", "module", "runtime-evaluator", "layer", "application",
					"promotionId", promotionID, "tierLevel", tier.TierLevel, "error", err)
				continue
			}
			if !hasPrev {
				continue
			}
			if tier.CooldownDays != nil {
				cooldownUntil := storeentities.ComputeCooldownUntil(prev.GrantedAt, *tier.CooldownDays)
				if cooldownUntil != nil && req.AsOfUtc.Before(*cooldownUntil) {
					continue
				}
			}
		}

		result, awarded := e.evaluateTier(ctx, candidate, tier, contactID, req, globalCooldownDays)
		if awarded {
			results = append(results, result)
			if exclusive {
				return results, true
			}
			continue // at most one group fires per tier; move to the next tier
		}
	}
	return results, false
}

// evaluateTier walks a tier's groups in order, firing at most one.
func (e Evaluator) evaluateTier(
	ctx context.Context,
	candidate providerdomain.ActivePromotion,
	tier storeentities.RuleTier,
	contactID string,
	req domain.EvaluationRequest,
	globalCooldownDays int,
) (domain.EvaluateResult, bool) {
	logger := e.logger()
	promotionID := candidate.Promotion.PromotionID

	groups, err := e.Store.GroupsForTier(ctx, tier.TierID)
	if err != nil {
		logger.Warn("group lookup failed, skipping tier",
			"event", "group_lookup_failed", "module", "runtime-evaluator", "layer", "application",
			"promotionId", promotionID, "tierLevel", tier.TierLevel, "error", err)
		return domain.EvaluateResult{}, false
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Order < groups[j].Order })

	for _, group := range groups {
		matched, err := e.RuleEngine.Evaluate(ctx, candidate.Workflow, ruleName(tier.TierLevel, group.Order), req.Event.Fields)
		if err != nil {
			logger.Warn("rule evaluation failed, treating as non-match",
				"event", "rule_eval_failed", "module", "runtime-evaluator", "layer", "application",
				"promotionId", promotionID, "ruleName", ruleName(tier.TierLevel, group.Order), "error", err)
			continue
		}
		if !matched {
			continue
		}

		rewardIDs, err := e.selectRewards(ctx, promotionID, group.GroupID)
		if err != nil {
			logger.Warn("reward selection failed, skipping group",
				"event", "reward_selection_failed", "module", "runtime-evaluator", "layer", "application",
				"promotionId", promotionID, "groupId", group.GroupID, "error", err)
			continue
		}

		if _, err := e.Grants.Grant(ctx, ports.GrantInput{
			ContactID:          contactID,
			PromotionID:        promotionID,
			VersionID:          candidate.Version.VersionID,
			TierLevel:          tier.TierLevel,
			ExpressionGroupID:  group.GroupID,
			RewardIDs:          rewardIDs,
			EventContext:       req.Event.Fields,
			SourceEventID:      req.Event.EventID,
			GrantedAt:          req.AsOfUtc,
			TierCooldownDays:   tier.CooldownDays,
			GlobalCooldownDays: globalCooldownDays,
		}); err != nil {
			logger.Error("grant persistence failed",
				"event", "grant_failed", "module", "runtime-evaluator", "layer", "application",
				"promotionId", promotionID, "groupId", group.GroupID, "error", err)
			continue
		}

		if e.Cache != nil {
			if err := e.Cache.Warm(ctx, cacheports.Entry{
				PromotionID: promotionID,
				Country:     candidate.Version.NormalizedCountry(),
				Version:     candidate.Version.Version,
				Workflow:    candidate.Workflow,
				Manifest:    candidate.Manifest,
			}); err != nil {
				logger.Warn("post-grant cache warm failed",
					"event", "cache_warm_failed", "module", "runtime-evaluator", "layer", "application",
					"promotionId", promotionID, "error", err)
			}
		}

		return domain.EvaluateResult{
			PromotionID:       promotionID,
			Version:           candidate.Version.Version,
			CountryISO:        candidate.Version.NormalizedCountry(),
			AwardedTier:       tier.TierLevel,
			ExpressionGroupID: group.GroupID,
			RewardIDs:         rewardIDs,
		}, true
	}
	return domain.EvaluateResult{}, false
}

func (e Evaluator) selectRewards(ctx context.Context, promotionID, groupID string) ([]string, error) {
	groupRewards, err := e.Store.GroupRewards(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(groupRewards) > 0 {
		return rewardIDs(groupRewards), nil
	}
	globalRewards, err := e.Store.GlobalRewards(ctx, promotionID)
	if err != nil {
		return nil, err
	}
	return rewardIDs(globalRewards), nil
}

func rewardIDs(rewards []storeentities.Reward) []string {
	ids := make([]string, 0, len(rewards))
	for _, r := range rewards {
		ids = append(ids, r.RewardID)
	}
	return ids
}

func intersects(segments map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := segments[r]; ok {
			return true
		}
	}
	return false
}
