// Package events is the canonical event envelope shared across
// bounded contexts' outbox payloads, kept import-stable for ports/
// application layers (see scripts/check_boundaries.go's contracts
// allowlist).
package events

import "time"

// Envelope is the shared event shape used across the promotion engine.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	CorrelationID  string    `json:"correlation_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}
