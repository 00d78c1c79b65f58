package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	storeports "promoengine/contexts/promotion-engine/promotion-store/ports"
	"promoengine/contexts/promotion-engine/runtime-evaluator/ports"
	"promoengine/contracts/events"
)

// defaultGrantUnit is the placeholder unit for a grant whose value is
// calculated downstream (spec.md §4.6 step 4: "the initial
// grantedValue is a placeholder").
const defaultGrantUnit = "PENDING"

// GrantService persists ContactReward rows for a fired group, plus the
// outbox event a downstream system consumes to compute the real
// reward value (spec.md §4.6).
type GrantService struct {
	Store       storeports.Repository
	IDGenerator storeports.IDGenerator
	Logger      *slog.Logger
}

func (s GrantService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Grant implements the §4.6 protocol: re-check idempotency, compute
// cooldown, create one grant per reward (or a single placeholder grant
// when rewards is empty), and write the outbox event in one call.
func (s GrantService) Grant(ctx context.Context, input ports.GrantInput) ([]storeentities.ContactReward, error) {
	if input.SourceEventID != "" {
		granted, err := s.Store.ExistsGrantedForEvent(ctx, input.ContactID, input.PromotionID, input.SourceEventID)
		if err != nil {
			return nil, err
		}
		if granted {
			s.logger().Info("grant skipped: event already granted",
				"event", "grant_skipped_duplicate_event", "module", "runtime-evaluator", "layer", "application",
				"promotionId", input.PromotionID, "sourceEventId", input.SourceEventID)
			return nil, nil
		}
	}

	effectiveCooldownDays := storeentities.EffectiveCooldownDays(input.TierCooldownDays, input.GlobalCooldownDays)
	cooldownUntil := storeentities.ComputeCooldownUntil(input.GrantedAt, effectiveCooldownDays)

	rewardIDs := input.RewardIDs
	if len(rewardIDs) == 0 {
		rewardIDs = []string{""}
	}

	grants := make([]storeentities.ContactReward, 0, len(rewardIDs))
	for _, rewardID := range rewardIDs {
		grantID, err := s.IDGenerator.NewID(ctx)
		if err != nil {
			return nil, err
		}
		var rewardIDPtr *string
		if rewardID != "" {
			rewardIDPtr = &rewardID
		}
		groupID := input.ExpressionGroupID
		grants = append(grants, storeentities.ContactReward{
			GrantID:       grantID,
			ContactID:     input.ContactID,
			PromotionID:   input.PromotionID,
			RewardID:      rewardIDPtr,
			GroupID:       &groupID,
			TierLevel:     input.TierLevel,
			GrantedAt:     input.GrantedAt,
			Status:        storeentities.ContactRewardStatusPending,
			GrantedValue:  storeentities.MonetaryValue{Amount: 0, Unit: defaultGrantUnit},
			CooldownUntil: cooldownUntil,
			SourceEventID: input.SourceEventID,
		})
	}

	message, err := s.outboxMessage(ctx, input, grants)
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateGrantsWithOutbox(ctx, grants, message); err != nil {
		return nil, err
	}

	s.logger().Info("reward grant created",
		"event", "grant_created", "module", "runtime-evaluator", "layer", "application",
		"promotionId", input.PromotionID, "tierLevel", input.TierLevel, "grantCount", len(grants))
	return grants, nil
}

type grantedEventPayload struct {
	ContactID         string   `json:"contactId"`
	PromotionID       string   `json:"promotionId"`
	TierLevel         int      `json:"tierLevel"`
	ExpressionGroupID string   `json:"expressionGroupId"`
	GrantIDs          []string `json:"grantIds"`
}

// outboxMessage builds the outbox row announcing grants, for the
// caller to persist in the same transaction as the grants themselves
// (spec.md §4.6 step 5).
func (s GrantService) outboxMessage(ctx context.Context, input ports.GrantInput, grants []storeentities.ContactReward) (storeentities.OutboxMessage, error) {
	grantIDs := make([]string, 0, len(grants))
	for _, g := range grants {
		grantIDs = append(grantIDs, g.GrantID)
	}
	payload := grantedEventPayload{
		ContactID:         input.ContactID,
		PromotionID:       input.PromotionID,
		TierLevel:         input.TierLevel,
		ExpressionGroupID: input.ExpressionGroupID,
		GrantIDs:          grantIDs,
	}
	body, err := json.Marshal(events.Envelope{
		EventID:        uuid.NewString(),
		EventType:      "promotion.reward.granted",
		SourceService:  "promotion-engine",
		OccurredAtUTC:  input.GrantedAt,
		EntityType:     "ContactReward",
		EntityID:       input.PromotionID,
		PayloadVersion: 1,
		Payload:        payload,
	})
	if err != nil {
		return storeentities.OutboxMessage{}, err
	}
	messageID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return storeentities.OutboxMessage{}, err
	}
	return storeentities.OutboxMessage{
		MessageID:  messageID,
		OccurredAt: input.GrantedAt,
		Type:       "promotion.reward.granted",
		Payload:    body,
	}, nil
}
