package domain

import (
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// ActivePromotion is the unified read-path result spec.md §4.3 returns:
// a (promotion, version) pair plus the bytes the evaluator needs,
// regardless of whether it was resolved from cache or store.
type ActivePromotion struct {
	Promotion storeentities.Promotion
	Version   storeentities.PromotionVersion
	Workflow  []byte
	Manifest  []byte
	// FromCache records provenance only for observability; evaluation
	// semantics must not depend on it (spec.md §4.3 correctness note).
	FromCache bool
}
