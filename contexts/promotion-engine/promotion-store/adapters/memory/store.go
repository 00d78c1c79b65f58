package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	domainerrors "promoengine/contexts/promotion-engine/promotion-store/domain/errors"
	"promoengine/contexts/promotion-engine/promotion-store/ports"
)

// Store is an in-process implementation of Repository + OutboxRepository
// + Clock + IDGenerator, used for local boot and tests the way the
// teacher's finance-core/submission-service memory stores are.
type Store struct {
	mu sync.RWMutex

	promotions   map[string]entities.Promotion
	versions     map[string]entities.PromotionVersion // keyed by versionID
	tiers        map[string]entities.RuleTier          // keyed by tierID
	groups       map[string]entities.RuleExpressionGroup
	rewards      map[string]entities.Reward
	globalLinks  map[string][]string // promotionID -> rewardIDs
	groupLinks   map[string][]string // groupID -> rewardIDs
	grants       map[string]entities.ContactReward
	outbox       map[string]entities.OutboxMessage
}

func NewStore() *Store {
	return &Store{
		promotions:  make(map[string]entities.Promotion),
		versions:    make(map[string]entities.PromotionVersion),
		tiers:       make(map[string]entities.RuleTier),
		groups:      make(map[string]entities.RuleExpressionGroup),
		rewards:     make(map[string]entities.Reward),
		globalLinks: make(map[string][]string),
		groupLinks:  make(map[string][]string),
		grants:      make(map[string]entities.ContactReward),
		outbox:      make(map[string]entities.OutboxMessage),
	}
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) { return uuid.NewString(), nil }

func (s *Store) CreatePromotion(_ context.Context, promotion entities.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[promotion.PromotionID] = promotion
	return nil
}

func (s *Store) GetPromotion(_ context.Context, promotionID string) (entities.Promotion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promotions[promotionID]
	return p, ok, nil
}

func (s *Store) NextVersionNumber(_ context.Context, promotionID, countryISO string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	country := strings.ToUpper(strings.TrimSpace(countryISO))
	max := 0
	for _, v := range s.versions {
		if v.PromotionID == promotionID && v.NormalizedCountry() == country && v.Version > max {
			max = v.Version
		}
	}
	return max + 1, nil
}

func (s *Store) CreateDraftVersion(_ context.Context, version entities.PromotionVersion, tiers []entities.RuleTier, groups []entities.RuleExpressionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	country := version.NormalizedCountry()
	for _, existing := range s.versions {
		if existing.PromotionID == version.PromotionID &&
			existing.NormalizedCountry() == country &&
			existing.Version == version.Version {
			return domainerrors.ErrVersionConflict
		}
	}
	s.versions[version.VersionID] = version
	for _, t := range tiers {
		s.tiers[t.TierID] = t
	}
	for _, g := range groups {
		s.groups[g.GroupID] = g
	}
	return nil
}

func (s *Store) LatestVersion(_ context.Context, promotionID, countryISO string) (entities.PromotionVersion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	country := strings.ToUpper(strings.TrimSpace(countryISO))
	var latest entities.PromotionVersion
	found := false
	for _, v := range s.versions {
		if v.PromotionID != promotionID || v.NormalizedCountry() != country {
			continue
		}
		if !found || v.Version > latest.Version {
			latest = v
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) PublishVersion(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return domainerrors.ErrVersionNotFound
	}
	v.IsDraft = false
	s.versions[versionID] = v
	return nil
}

func (s *Store) PublishVersionWithOutbox(_ context.Context, versionID string, message entities.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return domainerrors.ErrVersionNotFound
	}
	v.IsDraft = false
	s.versions[versionID] = v
	s.outbox[message.MessageID] = message
	return nil
}

func (s *Store) GetVersion(_ context.Context, versionID string) (entities.PromotionVersion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[versionID]
	return v, ok, nil
}

func (s *Store) PutReward(_ context.Context, reward entities.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[reward.RewardID] = reward
	return nil
}

func (s *Store) LinkGlobalRewards(_ context.Context, promotionID string, rewardIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalLinks[promotionID] = append([]string(nil), rewardIDs...)
	return nil
}

func (s *Store) LinkGroupRewards(_ context.Context, groupID string, rewardIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupLinks[groupID] = append([]string(nil), rewardIDs...)
	return nil
}

func (s *Store) GlobalRewards(_ context.Context, promotionID string) ([]entities.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rewardsFor(s.globalLinks[promotionID]), nil
}

func (s *Store) GroupRewards(_ context.Context, groupID string) ([]entities.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rewardsFor(s.groupLinks[groupID]), nil
}

// rewardsFor must be called with s.mu held.
func (s *Store) rewardsFor(ids []string) []entities.Reward {
	out := make([]entities.Reward, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rewards[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) ActivePromotions(_ context.Context, countryISO string, asOf time.Time) ([]ports.ActivePromotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	country := strings.ToUpper(strings.TrimSpace(countryISO))

	var out []ports.ActivePromotion
	for _, v := range s.versions {
		if v.IsDraft || v.NormalizedCountry() != country {
			continue
		}
		if !v.Window.ActiveAt(asOf) {
			continue
		}
		promotion, ok := s.promotions[v.PromotionID]
		if !ok {
			continue
		}
		out = append(out, ports.ActivePromotion{Promotion: promotion, Version: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Promotion.PromotionID < out[j].Promotion.PromotionID })
	return out, nil
}

func (s *Store) TiersForVersion(_ context.Context, versionID string) ([]entities.RuleTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.RuleTier
	for _, t := range s.tiers {
		if t.VersionID == versionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TierLevel != out[j].TierLevel {
			return out[i].TierLevel < out[j].TierLevel
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (s *Store) GroupsForTier(_ context.Context, tierID string) ([]entities.RuleExpressionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.RuleExpressionGroup
	for _, g := range s.groups {
		if g.TierID == tierID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Store) LastGranted(_ context.Context, contactID, promotionID string) (entities.ContactReward, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestGranted(s.grants, func(g entities.ContactReward) bool {
		return g.ContactID == contactID && g.PromotionID == promotionID
	})
}

func (s *Store) LastGrantedForTier(_ context.Context, contactID, promotionID string, tierLevel int) (entities.ContactReward, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestGranted(s.grants, func(g entities.ContactReward) bool {
		return g.ContactID == contactID && g.PromotionID == promotionID && g.TierLevel == tierLevel
	})
}

func latestGranted(grants map[string]entities.ContactReward, match func(entities.ContactReward) bool) (entities.ContactReward, bool, error) {
	var latest entities.ContactReward
	found := false
	for _, g := range grants {
		if g.Status != entities.ContactRewardStatusGranted || !match(g) {
			continue
		}
		if !found || g.GrantedAt.After(latest.GrantedAt) {
			latest = g
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) ExistsGrantedForEvent(_ context.Context, contactID, promotionID, sourceEventID string) (bool, error) {
	if strings.TrimSpace(sourceEventID) == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.Status == entities.ContactRewardStatusGranted &&
			g.ContactID == contactID &&
			g.PromotionID == promotionID &&
			g.SourceEventID == sourceEventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateGrants(_ context.Context, grants []entities.ContactReward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Idempotency race guard: the unique index on (contact, promotion,
	// sourceEventId) WHERE status=Granted is emulated by re-checking
	// here under the write lock before inserting.
	for _, g := range grants {
		if g.SourceEventID != "" && g.Status == entities.ContactRewardStatusGranted {
			for _, existing := range s.grants {
				if existing.Status == entities.ContactRewardStatusGranted &&
					existing.ContactID == g.ContactID &&
					existing.PromotionID == g.PromotionID &&
					existing.SourceEventID == g.SourceEventID {
					return domainerrors.ErrGrantAlreadyExists
				}
			}
		}
	}
	for _, g := range grants {
		s.grants[g.GrantID] = g
	}
	return nil
}

func (s *Store) CreateGrantsWithOutbox(_ context.Context, grants []entities.ContactReward, message entities.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range grants {
		if g.SourceEventID != "" && g.Status == entities.ContactRewardStatusGranted {
			for _, existing := range s.grants {
				if existing.Status == entities.ContactRewardStatusGranted &&
					existing.ContactID == g.ContactID &&
					existing.PromotionID == g.PromotionID &&
					existing.SourceEventID == g.SourceEventID {
					return domainerrors.ErrGrantAlreadyExists
				}
			}
		}
	}
	for _, g := range grants {
		s.grants[g.GrantID] = g
	}
	s.outbox[message.MessageID] = message
	return nil
}

func (s *Store) UpdateGrantStatus(_ context.Context, grantID string, status entities.ContactRewardStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID]
	if !ok {
		return domainerrors.ErrPromotionNotFound
	}
	if !g.Status.CanTransitionTo(status) {
		return domainerrors.ErrIllegalStatusTransition
	}
	g.Status = status
	s.grants[grantID] = g
	return nil
}

func (s *Store) ListPendingGrantsOlderThan(_ context.Context, threshold time.Time, limit int) ([]entities.ContactReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.ContactReward
	for _, g := range s.grants {
		if g.Status == entities.ContactRewardStatusPending && g.GrantedAt.Before(threshold) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AppendOutbox(_ context.Context, message entities.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[message.MessageID] = message
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]entities.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.OutboxMessage
	for _, m := range s.outbox {
		if !m.Processed {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, messageID string, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.outbox[messageID]
	if !ok {
		return domainerrors.ErrPromotionNotFound
	}
	m.Processed = true
	ts := processedAt.UTC()
	m.ProcessedAt = &ts
	s.outbox[messageID] = m
	return nil
}
