package entities

import "fmt"

// VersionSet is the in-memory arena for one promotion's versions, used
// by the compiler and the store to enforce the uniqueness invariants
// before insertion (spec.md §9: "only the aggregate root exposes
// mutation; children are created through factory functions").
type VersionSet struct {
	versions []PromotionVersion
}

func NewVersionSet(existing []PromotionVersion) *VersionSet {
	return &VersionSet{versions: append([]PromotionVersion(nil), existing...)}
}

// NextVersionNumber allocates MAX(version)+1 over the set (spec.md §4.8).
func (vs *VersionSet) NextVersionNumber() int {
	max := 0
	for _, v := range vs.versions {
		if v.Version > max {
			max = v.Version
		}
	}
	return max + 1
}

// AddVersion enforces (promotionId, countryIso, version) uniqueness.
func (vs *VersionSet) AddVersion(v PromotionVersion) error {
	country := v.NormalizedCountry()
	for _, existing := range vs.versions {
		if existing.PromotionID == v.PromotionID &&
			existing.NormalizedCountry() == country &&
			existing.Version == v.Version {
			return fmt.Errorf("duplicate promotion version (promotion=%s country=%s version=%d)", v.PromotionID, country, v.Version)
		}
	}
	vs.versions = append(vs.versions, v)
	return nil
}

// TierSet enforces (promotionId, tierLevel) uniqueness within one
// promotion version.
type TierSet struct {
	tiers []RuleTier
}

func NewTierSet() *TierSet { return &TierSet{} }

func (ts *TierSet) AddTier(t RuleTier) error {
	for _, existing := range ts.tiers {
		if existing.PromotionID == t.PromotionID && existing.TierLevel == t.TierLevel {
			return fmt.Errorf("duplicate tier level (promotion=%s tierLevel=%d)", t.PromotionID, t.TierLevel)
		}
	}
	ts.tiers = append(ts.tiers, t)
	return nil
}

func (ts *TierSet) Tiers() []RuleTier { return append([]RuleTier(nil), ts.tiers...) }

// GroupSet enforces (tierId, order) uniqueness within one tier.
type GroupSet struct {
	groups []RuleExpressionGroup
}

func NewGroupSet() *GroupSet { return &GroupSet{} }

func (gs *GroupSet) AddGroup(g RuleExpressionGroup) error {
	for _, existing := range gs.groups {
		if existing.TierID == g.TierID && existing.Order == g.Order {
			return fmt.Errorf("duplicate group order (tier=%s order=%d)", g.TierID, g.Order)
		}
	}
	gs.groups = append(gs.groups, g)
	return nil
}

func (gs *GroupSet) Groups() []RuleExpressionGroup { return append([]RuleExpressionGroup(nil), gs.groups...) }
