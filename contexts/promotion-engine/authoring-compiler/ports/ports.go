// Package ports defines what the Authoring Compiler depends on: the
// attribute/operator catalog (read-only) and the promotion store
// writes a draft upsert needs.
package ports

import (
	"context"
	"time"

	catalogdomain "promoengine/contexts/promotion-engine/catalog/domain"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// CatalogReader is the catalog dependency: attribute/operator lookup
// by id, used while lowering clauses.
type CatalogReader interface {
	GetAttribute(ctx context.Context, attributeID string) (catalogdomain.Attribute, bool, error)
	GetOperator(ctx context.Context, operatorID string) (catalogdomain.Operator, bool, error)
}

// PromotionWriter is the promotion-store write surface a draft upsert
// exercises: allocate/persist a promotion, its draft version, tiers,
// groups and reward links.
type PromotionWriter interface {
	GetPromotion(ctx context.Context, promotionID string) (storeentities.Promotion, bool, error)
	CreatePromotion(ctx context.Context, promotion storeentities.Promotion) error
	NextVersionNumber(ctx context.Context, promotionID, countryISO string) (int, error)
	CreateDraftVersion(ctx context.Context, version storeentities.PromotionVersion, tiers []storeentities.RuleTier, groups []storeentities.RuleExpressionGroup) error
	PutReward(ctx context.Context, reward storeentities.Reward) error
	LinkGlobalRewards(ctx context.Context, promotionID string, rewardIDs []string) error
	LinkGroupRewards(ctx context.Context, groupID string, rewardIDs []string) error
}

// IDGenerator mints stable ids for newly created entities.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Clock supplies the current instant for CreatedAt stamping.
type Clock interface {
	Now() time.Time
}
