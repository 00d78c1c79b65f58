package domain

// EvaluateResult is one fired (tier, group) for one promotion (spec.md
// §4.5: "list of {promotionId, version, countryIso, awardedTier,
// expressionGroupId, rewardIds}").
type EvaluateResult struct {
	PromotionID       string
	Version           int
	CountryISO        string
	AwardedTier       int
	ExpressionGroupID string
	RewardIDs         []string
}
