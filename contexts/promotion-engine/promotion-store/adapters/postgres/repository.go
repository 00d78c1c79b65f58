package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	domainerrors "promoengine/contexts/promotion-engine/promotion-store/domain/errors"
	"promoengine/contexts/promotion-engine/promotion-store/ports"
)

// Repository persists the promo.* tables named in spec.md §6, with the
// indexes spec.md calls out backing each hot-path read.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePromotion(ctx context.Context, promotion entities.Promotion) error {
	row := promotionModelFromDomain(promotion)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "promotion_id"}}, DoNothing: true}).
		Create(&row).Error
}

func (r *Repository) GetPromotion(ctx context.Context, promotionID string) (entities.Promotion, bool, error) {
	var row promotionModel
	err := r.db.WithContext(ctx).Where("promotion_id = ?", strings.TrimSpace(promotionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Promotion{}, false, nil
		}
		return entities.Promotion{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) NextVersionNumber(ctx context.Context, promotionID, countryISO string) (int, error) {
	var maxVersion *int
	err := r.db.WithContext(ctx).
		Model(&versionModel{}).
		Select("MAX(version)").
		Where("promotion_id = ? AND country_iso = ?", promotionID, strings.ToUpper(strings.TrimSpace(countryISO))).
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	if maxVersion == nil {
		return 1, nil
	}
	return *maxVersion + 1, nil
}

func (r *Repository) CreateDraftVersion(ctx context.Context, version entities.PromotionVersion, tiers []entities.RuleTier, groups []entities.RuleExpressionGroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := versionModelFromDomain(version)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrVersionConflict
			}
			return err
		}
		for _, t := range tiers {
			tierRow := tierModelFromDomain(t)
			if err := tx.Create(&tierRow).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrDuplicateTierLevel
				}
				return err
			}
		}
		for _, g := range groups {
			groupRow := groupModelFromDomain(g)
			if err := tx.Create(&groupRow).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrDuplicateGroupOrder
				}
				return err
			}
		}
		return nil
	})
}

func (r *Repository) LatestVersion(ctx context.Context, promotionID, countryISO string) (entities.PromotionVersion, bool, error) {
	var row versionModel
	err := r.db.WithContext(ctx).
		Where("promotion_id = ? AND country_iso = ?", promotionID, strings.ToUpper(strings.TrimSpace(countryISO))).
		Order("version DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PromotionVersion{}, false, nil
		}
		return entities.PromotionVersion{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) PublishVersion(ctx context.Context, versionID string) error {
	result := r.db.WithContext(ctx).
		Model(&versionModel{}).
		Where("version_id = ?", strings.TrimSpace(versionID)).
		Update("is_draft", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVersionNotFound
	}
	return nil
}

func (r *Repository) PublishVersionWithOutbox(ctx context.Context, versionID string, message entities.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&versionModel{}).
			Where("version_id = ?", strings.TrimSpace(versionID)).
			Update("is_draft", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrVersionNotFound
		}
		row := outboxModelFromDomain(message)
		return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
			Create(&row).Error
	})
}

func (r *Repository) GetVersion(ctx context.Context, versionID string) (entities.PromotionVersion, bool, error) {
	var row versionModel
	err := r.db.WithContext(ctx).Where("version_id = ?", strings.TrimSpace(versionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PromotionVersion{}, false, nil
		}
		return entities.PromotionVersion{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) PutReward(ctx context.Context, reward entities.Reward) error {
	row := rewardModelFromDomain(reward)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reward_id"}}, UpdateAll: true}).
		Create(&row).Error
}

func (r *Repository) LinkGlobalRewards(ctx context.Context, promotionID string, rewardIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promotion_id = ?", promotionID).Delete(&promotionRewardModel{}).Error; err != nil {
			return err
		}
		rows := make([]promotionRewardModel, 0, len(rewardIDs))
		for _, id := range rewardIDs {
			rows = append(rows, promotionRewardModel{PromotionID: promotionID, RewardID: id})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repository) LinkGroupRewards(ctx context.Context, groupID string, rewardIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&groupRewardModel{}).Error; err != nil {
			return err
		}
		rows := make([]groupRewardModel, 0, len(rewardIDs))
		for _, id := range rewardIDs {
			rows = append(rows, groupRewardModel{GroupID: groupID, RewardID: id})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repository) GlobalRewards(ctx context.Context, promotionID string) ([]entities.Reward, error) {
	var rows []rewardModel
	err := r.db.WithContext(ctx).
		Joins("JOIN promo.promotion_reward pr ON pr.reward_id = promo.reward.reward_id").
		Where("pr.promotion_id = ?", promotionID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rewardModelsToDomain(rows), nil
}

func (r *Repository) GroupRewards(ctx context.Context, groupID string) ([]entities.Reward, error) {
	var rows []rewardModel
	err := r.db.WithContext(ctx).
		Joins("JOIN promo.rule_group_reward gr ON gr.reward_id = promo.reward.reward_id").
		Where("gr.group_id = ?", groupID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rewardModelsToDomain(rows), nil
}

func (r *Repository) ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]ports.ActivePromotion, error) {
	country := strings.ToUpper(strings.TrimSpace(countryISO))
	var rows []versionModel
	err := r.db.WithContext(ctx).
		Where("country_iso = ? AND is_draft = ?", country, false).
		Where("valid_from IS NULL OR valid_from <= ?", asOf.UTC()).
		Where("valid_to IS NULL OR valid_to >= ?", asOf.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]ports.ActivePromotion, 0, len(rows))
	for _, row := range rows {
		version := row.toDomain()
		var promoRow promotionModel
		if err := r.db.WithContext(ctx).Where("promotion_id = ?", version.PromotionID).First(&promoRow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, ports.ActivePromotion{Promotion: promoRow.toDomain(), Version: version})
	}
	return out, nil
}

func (r *Repository) TiersForVersion(ctx context.Context, versionID string) ([]entities.RuleTier, error) {
	var rows []tierModel
	err := r.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("tier_level ASC, tier_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entities.RuleTier, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) GroupsForTier(ctx context.Context, tierID string) ([]entities.RuleExpressionGroup, error) {
	var rows []groupModel
	err := r.db.WithContext(ctx).
		Where("tier_id = ?", tierID).
		Order("group_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entities.RuleExpressionGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) LastGranted(ctx context.Context, contactID, promotionID string) (entities.ContactReward, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND promotion_id = ? AND status = ?", contactID, promotionID, string(entities.ContactRewardStatusGranted)).
		Order("granted_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContactReward{}, false, nil
		}
		return entities.ContactReward{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) LastGrantedForTier(ctx context.Context, contactID, promotionID string, tierLevel int) (entities.ContactReward, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND promotion_id = ? AND tier_level = ? AND status = ?", contactID, promotionID, tierLevel, string(entities.ContactRewardStatusGranted)).
		Order("granted_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContactReward{}, false, nil
		}
		return entities.ContactReward{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) ExistsGrantedForEvent(ctx context.Context, contactID, promotionID, sourceEventID string) (bool, error) {
	if strings.TrimSpace(sourceEventID) == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&grantModel{}).
		Where("contact_id = ? AND promotion_id = ? AND source_event_id = ? AND status = ?",
			contactID, promotionID, sourceEventID, string(entities.ContactRewardStatusGranted)).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateGrants(ctx context.Context, grants []entities.ContactReward) error {
	rows := make([]grantModel, 0, len(grants))
	for _, g := range grants {
		rows = append(rows, grantModelFromDomain(g))
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	if isUniqueViolation(err) {
		// The partial unique index on (contact, promotion, source_event_id)
		// WHERE status=Granted rejected a concurrent duplicate grant; the
		// second writer treats it as a no-op (spec.md §5).
		return domainerrors.ErrGrantAlreadyExists
	}
	return err
}

func (r *Repository) CreateGrantsWithOutbox(ctx context.Context, grants []entities.ContactReward, message entities.OutboxMessage) error {
	rows := make([]grantModel, 0, len(grants))
	for _, g := range grants {
		rows = append(rows, grantModelFromDomain(g))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrGrantAlreadyExists
			}
			return err
		}
		outboxRow := outboxModelFromDomain(message)
		return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
			Create(&outboxRow).Error
	})
}

func (r *Repository) UpdateGrantStatus(ctx context.Context, grantID string, status entities.ContactRewardStatus) error {
	result := r.db.WithContext(ctx).
		Model(&grantModel{}).
		Where("grant_id = ? AND status = ?", grantID, string(entities.ContactRewardStatusPending)).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIllegalStatusTransition
	}
	return nil
}

func (r *Repository) ListPendingGrantsOlderThan(ctx context.Context, threshold time.Time, limit int) ([]entities.ContactReward, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []grantModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND granted_at < ?", string(entities.ContactRewardStatusPending), threshold.UTC()).
		Order("granted_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entities.ContactReward, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message entities.OutboxMessage) error {
	row := outboxModelFromDomain(message)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]entities.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("is_processed = ?", false).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entities.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, messageID string, processedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("message_id = ?", messageID).
		Updates(map[string]any{"is_processed": true, "processed_at": processedAt.UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
