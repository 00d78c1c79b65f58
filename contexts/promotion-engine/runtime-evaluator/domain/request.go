// Package domain holds the runtime evaluator's request/result shapes
// (spec.md §4.5).
package domain

import "time"

// EventContext is the inbound event payload the evaluator both gates
// on (eventId) and hands to the rule engine as ctx.
type EventContext struct {
	EventID string
	Fields  map[string]any
}

// EvaluationRequest is the evaluate endpoint's decoded input.
type EvaluationRequest struct {
	ContactID  string
	CountryISO string
	AsOfUtc    time.Time
	Event      EventContext
}
