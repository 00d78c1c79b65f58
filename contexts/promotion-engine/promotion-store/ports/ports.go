package ports

import (
	"context"
	"time"

	"promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// ActivePromotion bundles a Promotion with the specific version that is
// active for the query's (country, t) — the result shape spec.md §4.1's
// "active promotions" query joins back to.
type ActivePromotion struct {
	Promotion entities.Promotion
	Version   entities.PromotionVersion
}

// Repository is the authoritative relational store: durable writes plus
// the hot-path read queries spec.md §4.1 names, each backed by an index.
type Repository interface {
	// Promotion & version lifecycle.
	CreatePromotion(ctx context.Context, promotion entities.Promotion) error
	GetPromotion(ctx context.Context, promotionID string) (entities.Promotion, bool, error)
	NextVersionNumber(ctx context.Context, promotionID, countryISO string) (int, error)
	CreateDraftVersion(ctx context.Context, version entities.PromotionVersion, tiers []entities.RuleTier, groups []entities.RuleExpressionGroup) error
	LatestVersion(ctx context.Context, promotionID, countryISO string) (entities.PromotionVersion, bool, error)
	PublishVersion(ctx context.Context, versionID string) error
	// PublishVersionWithOutbox flips is-draft and appends the outbox
	// message in one transaction (spec.md §4.7 steps 1-2).
	PublishVersionWithOutbox(ctx context.Context, versionID string, message entities.OutboxMessage) error
	GetVersion(ctx context.Context, versionID string) (entities.PromotionVersion, bool, error)

	// Reward catalog and linkage.
	PutReward(ctx context.Context, reward entities.Reward) error
	LinkGlobalRewards(ctx context.Context, promotionID string, rewardIDs []string) error
	LinkGroupRewards(ctx context.Context, groupID string, rewardIDs []string) error
	GlobalRewards(ctx context.Context, promotionID string) ([]entities.Reward, error)
	GroupRewards(ctx context.Context, groupID string) ([]entities.Reward, error)

	// Hot-path reads used by the Provider and Evaluator.
	ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]ActivePromotion, error)
	TiersForVersion(ctx context.Context, versionID string) ([]entities.RuleTier, error)
	GroupsForTier(ctx context.Context, tierID string) ([]entities.RuleExpressionGroup, error)
	LastGranted(ctx context.Context, contactID, promotionID string) (entities.ContactReward, bool, error)
	LastGrantedForTier(ctx context.Context, contactID, promotionID string, tierLevel int) (entities.ContactReward, bool, error)
	ExistsGrantedForEvent(ctx context.Context, contactID, promotionID, sourceEventID string) (bool, error)

	// Grant persistence (§4.6).
	CreateGrants(ctx context.Context, grants []entities.ContactReward) error
	// CreateGrantsWithOutbox writes the grant rows and the outbox event
	// that announces them in one transaction (spec.md §4.6 step 5, §4.1
	// "the outbox write sits in the same transaction as the state change
	// that emitted it").
	CreateGrantsWithOutbox(ctx context.Context, grants []entities.ContactReward, message entities.OutboxMessage) error
	UpdateGrantStatus(ctx context.Context, grantID string, status entities.ContactRewardStatus) error
	ListPendingGrantsOlderThan(ctx context.Context, threshold time.Time, limit int) ([]entities.ContactReward, error)
}

// OutboxRepository is the durable staging table drained by the sweeper.
type OutboxRepository interface {
	AppendOutbox(ctx context.Context, message entities.OutboxMessage) error
	ListPendingOutbox(ctx context.Context, limit int) ([]entities.OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, messageID string, processedAt time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
