package postgresadapter

import (
	"time"

	"promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// Gorm models for the promo schema. Field tags mirror the tables and
// indexes spec.md §6 names; domain types stay free of persistence tags.

type promotionModel struct {
	PromotionID        string `gorm:"column:promotion_id;primaryKey"`
	Name               string `gorm:"column:name"`
	Timezone           string `gorm:"column:timezone"`
	GlobalCooldownDays int    `gorm:"column:global_cooldown_days"`
	CreatedAt          time.Time `gorm:"column:created_at"`
}

func (promotionModel) TableName() string { return "promo.promotion" }

func promotionModelFromDomain(p entities.Promotion) promotionModel {
	return promotionModel{
		PromotionID:        p.PromotionID,
		Name:               p.Name,
		Timezone:           p.Timezone,
		GlobalCooldownDays: p.GlobalCooldownDays,
		CreatedAt:          p.CreatedAt,
	}
}

func (m promotionModel) toDomain() entities.Promotion {
	return entities.Promotion{
		PromotionID:        m.PromotionID,
		Name:               m.Name,
		Timezone:           m.Timezone,
		GlobalCooldownDays: m.GlobalCooldownDays,
		CreatedAt:          m.CreatedAt,
	}
}

// versionModel backs promo.promotion_version; unique index on
// (promotion_id, country_iso, version) enforces spec.md §3's uniqueness
// invariant at the database layer.
type versionModel struct {
	VersionID          string `gorm:"column:version_id;primaryKey"`
	PromotionID        string `gorm:"column:promotion_id;uniqueIndex:idx_promotion_version,priority:1"`
	Version            int    `gorm:"column:version;uniqueIndex:idx_promotion_version,priority:3"`
	CountryISO         string `gorm:"column:country_iso;uniqueIndex:idx_promotion_version,priority:2"`
	IsDraft            bool   `gorm:"column:is_draft"`
	WorkflowPayload    []byte `gorm:"column:workflow_payload"`
	ManifestPayload    []byte `gorm:"column:manifest_payload"`
	Timezone           string `gorm:"column:timezone"`
	GlobalCooldownDays int    `gorm:"column:global_cooldown_days"`
	ValidFrom          *time.Time `gorm:"column:valid_from"`
	ValidTo            *time.Time `gorm:"column:valid_to"`
}

func (versionModel) TableName() string { return "promo.promotion_version" }

func versionModelFromDomain(v entities.PromotionVersion) versionModel {
	return versionModel{
		VersionID:          v.VersionID,
		PromotionID:        v.PromotionID,
		Version:            v.Version,
		CountryISO:         v.NormalizedCountry(),
		IsDraft:            v.IsDraft,
		WorkflowPayload:    v.WorkflowPayload,
		ManifestPayload:    v.ManifestPayload,
		Timezone:           v.Timezone,
		GlobalCooldownDays: v.GlobalCooldownDays,
		ValidFrom:          v.Window.ValidFrom,
		ValidTo:            v.Window.ValidTo,
	}
}

func (m versionModel) toDomain() entities.PromotionVersion {
	window, _ := entities.NewValidityWindow(m.ValidFrom, m.ValidTo)
	return entities.PromotionVersion{
		VersionID:          m.VersionID,
		PromotionID:        m.PromotionID,
		Version:            m.Version,
		CountryISO:         m.CountryISO,
		IsDraft:            m.IsDraft,
		WorkflowPayload:    m.WorkflowPayload,
		ManifestPayload:    m.ManifestPayload,
		Timezone:           m.Timezone,
		GlobalCooldownDays: m.GlobalCooldownDays,
		Window:             window,
	}
}

type tierModel struct {
	TierID       string `gorm:"column:tier_id;primaryKey"`
	PromotionID  string `gorm:"column:promotion_id;uniqueIndex:idx_tier_level,priority:1"`
	VersionID    string `gorm:"column:version_id;index"`
	TierLevel    int    `gorm:"column:tier_level;uniqueIndex:idx_tier_level,priority:2"`
	TierOrder    int    `gorm:"column:tier_order"`
	CooldownDays *int   `gorm:"column:cooldown_days"`
}

func (tierModel) TableName() string { return "promo.rule_tier" }

func tierModelFromDomain(t entities.RuleTier) tierModel {
	return tierModel{
		TierID:       t.TierID,
		PromotionID:  t.PromotionID,
		VersionID:    t.VersionID,
		TierLevel:    t.TierLevel,
		TierOrder:    t.Order,
		CooldownDays: t.CooldownDays,
	}
}

func (m tierModel) toDomain() entities.RuleTier {
	return entities.RuleTier{
		TierID:       m.TierID,
		PromotionID:  m.PromotionID,
		VersionID:    m.VersionID,
		TierLevel:    m.TierLevel,
		Order:        m.TierOrder,
		CooldownDays: m.CooldownDays,
	}
}

type groupModel struct {
	GroupID           string `gorm:"column:group_id;primaryKey"`
	PromotionID       string `gorm:"column:promotion_id"`
	TierID            string `gorm:"column:tier_id;uniqueIndex:idx_group_order,priority:1"`
	GroupOrder        int    `gorm:"column:group_order;uniqueIndex:idx_group_order,priority:2"`
	ExpressionPayload []byte `gorm:"column:expression_payload"`
}

func (groupModel) TableName() string { return "promo.rule_expression_group" }

func groupModelFromDomain(g entities.RuleExpressionGroup) groupModel {
	return groupModel{
		GroupID:           g.GroupID,
		PromotionID:       g.PromotionID,
		TierID:            g.TierID,
		GroupOrder:        g.Order,
		ExpressionPayload: g.ExpressionPayload,
	}
}

func (m groupModel) toDomain() entities.RuleExpressionGroup {
	return entities.RuleExpressionGroup{
		GroupID:           m.GroupID,
		PromotionID:       m.PromotionID,
		TierID:            m.TierID,
		Order:             m.GroupOrder,
		ExpressionPayload: m.ExpressionPayload,
	}
}

type rewardModel struct {
	RewardID string  `gorm:"column:reward_id;primaryKey"`
	Name     string  `gorm:"column:name"`
	Kind     string  `gorm:"column:kind"`
	Amount   float64 `gorm:"column:amount"`
	Unit     string  `gorm:"column:unit"`
	Active   bool    `gorm:"column:active"`
}

func (rewardModel) TableName() string { return "promo.reward" }

func rewardModelFromDomain(r entities.Reward) rewardModel {
	return rewardModel{
		RewardID: r.RewardID,
		Name:     r.Name,
		Kind:     string(r.Kind),
		Amount:   r.Value.Amount,
		Unit:     r.Value.Unit,
		Active:   r.Active,
	}
}

func (m rewardModel) toDomain() entities.Reward {
	value, _ := entities.NewMonetaryValue(m.Amount, m.Unit)
	return entities.Reward{
		RewardID: m.RewardID,
		Name:     m.Name,
		Kind:     entities.RewardKind(m.Kind),
		Value:    value,
		Active:   m.Active,
	}
}

func rewardModelsToDomain(rows []rewardModel) []entities.Reward {
	out := make([]entities.Reward, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

type promotionRewardModel struct {
	PromotionID string `gorm:"column:promotion_id;primaryKey"`
	RewardID    string `gorm:"column:reward_id;primaryKey"`
}

func (promotionRewardModel) TableName() string { return "promo.promotion_reward" }

type groupRewardModel struct {
	GroupID  string `gorm:"column:group_id;primaryKey"`
	RewardID string `gorm:"column:reward_id;primaryKey"`
}

func (groupRewardModel) TableName() string { return "promo.rule_group_reward" }

// grantModel backs promo.contact_reward. The partial unique index on
// (contact_id, promotion_id, source_event_id) WHERE status = 'Granted'
// is created by migration (not representable in a gorm tag) and backs
// ExistsGrantedForEvent / CreateGrants' conflict handling.
type grantModel struct {
	GrantID       string     `gorm:"column:grant_id;primaryKey"`
	ContactID     string     `gorm:"column:contact_id;index:idx_contact_promotion_tier"`
	PromotionID   string     `gorm:"column:promotion_id;index:idx_contact_promotion_tier"`
	RewardID      *string    `gorm:"column:reward_id"`
	GroupID       *string    `gorm:"column:group_id"`
	TierLevel     int        `gorm:"column:tier_level;index:idx_contact_promotion_tier"`
	GrantedAt     time.Time  `gorm:"column:granted_at;index:idx_contact_promotion_tier"`
	Status        string     `gorm:"column:status"`
	Amount        float64    `gorm:"column:amount"`
	Unit          string     `gorm:"column:unit"`
	CooldownUntil *time.Time `gorm:"column:cooldown_until"`
	SourceEventID string     `gorm:"column:source_event_id;index:idx_contact_promotion_event"`
}

func (grantModel) TableName() string { return "promo.contact_reward" }

func grantModelFromDomain(g entities.ContactReward) grantModel {
	return grantModel{
		GrantID:       g.GrantID,
		ContactID:     g.ContactID,
		PromotionID:   g.PromotionID,
		RewardID:      g.RewardID,
		GroupID:       g.GroupID,
		TierLevel:     g.TierLevel,
		GrantedAt:     g.GrantedAt,
		Status:        string(g.Status),
		Amount:        g.GrantedValue.Amount,
		Unit:          g.GrantedValue.Unit,
		CooldownUntil: g.CooldownUntil,
		SourceEventID: g.SourceEventID,
	}
}

func (m grantModel) toDomain() entities.ContactReward {
	value, _ := entities.NewMonetaryValue(m.Amount, m.Unit)
	return entities.ContactReward{
		GrantID:       m.GrantID,
		ContactID:     m.ContactID,
		PromotionID:   m.PromotionID,
		RewardID:      m.RewardID,
		GroupID:       m.GroupID,
		TierLevel:     m.TierLevel,
		GrantedAt:     m.GrantedAt,
		Status:        entities.ContactRewardStatus(m.Status),
		GrantedValue:  value,
		CooldownUntil: m.CooldownUntil,
		SourceEventID: m.SourceEventID,
	}
}

// outboxModel backs the durable relay staging table; index on
// (is_processed, occurred_at) backs ListPendingOutbox's sweep query.
type outboxModel struct {
	MessageID   string     `gorm:"column:message_id;primaryKey"`
	OccurredAt  time.Time  `gorm:"column:occurred_at;index:idx_outbox_pending,priority:2"`
	Type        string     `gorm:"column:type"`
	Payload     []byte     `gorm:"column:payload"`
	IsProcessed bool       `gorm:"column:is_processed;index:idx_outbox_pending,priority:1"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
}

func (outboxModel) TableName() string { return "promo.outbox" }

func outboxModelFromDomain(m entities.OutboxMessage) outboxModel {
	return outboxModel{
		MessageID:   m.MessageID,
		OccurredAt:  m.OccurredAt,
		Type:        m.Type,
		Payload:     m.Payload,
		IsProcessed: m.Processed,
		ProcessedAt: m.ProcessedAt,
	}
}

func (m outboxModel) toDomain() entities.OutboxMessage {
	return entities.OutboxMessage{
		MessageID:   m.MessageID,
		OccurredAt:  m.OccurredAt,
		Type:        m.Type,
		Payload:     m.Payload,
		Processed:   m.IsProcessed,
		ProcessedAt: m.ProcessedAt,
	}
}
