// Package workers holds the publisher's outbox sweeper, grounded on the
// teacher's application/workers outbox relay idiom, extended with
// exponential backoff retries per spec.md §4.7 ("the sweeper retries
// with exponential backoff; messages are at-least-once").
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// OutboxRepository is the sweeper's store dependency.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]storeentities.OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, messageID string, processedAt time.Time) error
}

// EventPublisher hands one outbox message to the downstream bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Clock interface {
	Now() time.Time
}

// OutboxRelay drains pending promotion-engine outbox rows.
type OutboxRelay struct {
	Outbox    OutboxRepository
	Publisher EventPublisher
	Clock     Clock
	BatchSize int
	MaxRetries uint64
	Logger    *slog.Logger
}

func (r OutboxRelay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// RunOnce publishes one batch of pending outbox rows, each with its
// own bounded exponential-backoff retry loop, and marks every row that
// successfully published.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		r.logger().Error("promotion outbox list failed",
			"event", "promotion_outbox_list_failed", "module", "publisher", "layer", "worker", "error", err)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		policy := backoff.WithContext(r.retryPolicy(), ctx)
		publishErr := backoff.Retry(func() error {
			return r.Publisher.Publish(ctx, row.Type, row.Payload)
		}, policy)
		if publishErr != nil {
			r.logger().Error("promotion outbox publish failed after retries",
				"event", "promotion_outbox_publish_failed", "module", "publisher", "layer", "worker",
				"message_id", row.MessageID, "type", row.Type, "error", publishErr)
			continue
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.MessageID, now); err != nil {
			r.logger().Error("promotion outbox mark published failed",
				"event", "promotion_outbox_mark_published_failed", "module", "publisher", "layer", "worker",
				"message_id", row.MessageID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		r.logger().Info("promotion outbox relay cycle completed",
			"event", "promotion_outbox_relay_completed", "module", "publisher", "layer", "worker",
			"published_count", published)
	}
	return nil
}

func (r OutboxRelay) retryPolicy() backoff.BackOff {
	maxRetries := r.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
}
