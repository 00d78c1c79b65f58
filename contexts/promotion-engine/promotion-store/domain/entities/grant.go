package entities

import "time"

// ContactRewardStatus models the one-way transition Pending -> {Granted,
// Rejected}. Granted and Rejected are both terminal.
type ContactRewardStatus string

const (
	ContactRewardStatusPending  ContactRewardStatus = "Pending"
	ContactRewardStatusGranted  ContactRewardStatus = "Granted"
	ContactRewardStatusRejected ContactRewardStatus = "Rejected"
)

// CanTransitionTo enforces the one-way lifecycle: Pending can move to
// either terminal state; terminal states never move again.
func (s ContactRewardStatus) CanTransitionTo(next ContactRewardStatus) bool {
	return s == ContactRewardStatusPending &&
		(next == ContactRewardStatusGranted || next == ContactRewardStatusRejected)
}

// ContactReward is a persisted grant record: a standalone aggregate
// where only Status (and the fields set alongside a status change) may
// transition after creation.
type ContactReward struct {
	GrantID         string
	ContactID       string
	PromotionID     string
	RewardID        *string
	GroupID         *string
	TierLevel       int
	GrantedAt       time.Time
	Status          ContactRewardStatus
	GrantedValue    MonetaryValue
	CooldownUntil   *time.Time
	SourceEventID   string
}

// EffectiveCooldownDays resolves tier-specific cooldown over the
// promotion's global cooldown (spec.md §3 invariant).
func EffectiveCooldownDays(tierCooldownDays *int, globalCooldownDays int) int {
	if tierCooldownDays != nil {
		return *tierCooldownDays
	}
	return globalCooldownDays
}

// ComputeCooldownUntil returns the cooldown-until instant for a grant,
// or nil when the effective cooldown is zero (no cooldown).
func ComputeCooldownUntil(grantedAt time.Time, effectiveCooldownDays int) *time.Time {
	if effectiveCooldownDays <= 0 {
		return nil
	}
	until := grantedAt.Add(time.Duration(effectiveCooldownDays) * 24 * time.Hour)
	return &until
}

// OutboxMessage is a durable at-least-once staging row drained by a
// sweeper and handed to a downstream bus.
type OutboxMessage struct {
	MessageID   string
	OccurredAt  time.Time
	Type        string
	Payload     []byte
	Processed   bool
	ProcessedAt *time.Time
}
