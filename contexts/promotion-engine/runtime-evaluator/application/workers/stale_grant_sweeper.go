// Package workers holds the runtime-evaluator's maintenance sweeper,
// grounded on the teacher's application/workers outbox relay idiom.
package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
	storeerrors "promoengine/contexts/promotion-engine/promotion-store/domain/errors"
	storeports "promoengine/contexts/promotion-engine/promotion-store/ports"
)

// StaleGrantSweeper flips Pending ContactReward rows to Rejected once
// they have sat unresolved past Horizon. Nothing in spec.md's runtime
// path ever transitions a grant to Rejected; this closes the lifecycle
// the status enum implies (Pending -> {Granted, Rejected}).
type StaleGrantSweeper struct {
	Store     storeports.Repository
	Clock     storeports.Clock
	Horizon   time.Duration
	BatchSize int
	Logger    *slog.Logger
}

func (s StaleGrantSweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// RunOnce rejects one batch of Pending grants older than Horizon.
func (s StaleGrantSweeper) RunOnce(ctx context.Context) error {
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	threshold := now.Add(-s.Horizon)

	stale, err := s.Store.ListPendingGrantsOlderThan(ctx, threshold, limit)
	if err != nil {
		s.logger().Error("stale grant list failed",
			"event", "stale_grant_list_failed", "module", "runtime-evaluator", "layer", "worker", "error", err)
		return err
	}

	rejected := 0
	for _, grant := range stale {
		if err := s.Store.UpdateGrantStatus(ctx, grant.GrantID, storeentities.ContactRewardStatusRejected); err != nil {
			if errors.Is(err, storeerrors.ErrIllegalStatusTransition) {
				continue // already resolved concurrently (e.g. a late grant): not an error
			}
			s.logger().Error("stale grant reject failed",
				"event", "stale_grant_reject_failed", "module", "runtime-evaluator", "layer", "worker",
				"grantId", grant.GrantID, "error", err)
			continue
		}
		rejected++
	}

	if rejected > 0 {
		s.logger().Info("stale grant sweep completed",
			"event", "stale_grant_sweep_completed", "module", "runtime-evaluator", "layer", "worker",
			"rejected_count", rejected)
	}
	return nil
}
