// Package ports defines the Promotion Cache contract (spec.md §4.2): a
// fast key/value layer serving compiled workflows, manifests, and
// per-country active/version indexes to the hot evaluation path.
package ports

import "context"

// Entry is the unit of work Warm writes atomically: the compiled
// workflow and manifest bytes for one (promotion, country, version),
// plus the display metadata stored under wf:metadata.
type Entry struct {
	PromotionID string
	Country     string
	Version     int
	Workflow    []byte
	Manifest    []byte
	Metadata    map[string]string
}

// Cache is the Promotion Cache port. Implementations MUST be safe for
// callers to ignore on error: a cache error is never authoritative,
// callers fall back to the Store (spec.md §4.2 failure semantics).
type Cache interface {
	// Warm performs the five-key batched write of spec.md §4.2. It is
	// idempotent: re-warming the same (promotion, version) is a no-op
	// apart from timestamps; warming a higher version advances the
	// wf:index score.
	Warm(ctx context.Context, entry Entry) error

	// ActivePromotions returns the members of wf:active:{country}.
	ActivePromotions(ctx context.Context, country string) ([]string, error)

	// GetWorkflow returns the workflow and manifest bytes for a
	// promotion in a country. version == 0 means "latest", resolved via
	// wf:index. ok is false on a cache miss (not an error).
	GetWorkflow(ctx context.Context, promotionID, country string, version int) (workflow, manifest []byte, resolvedVersion int, ok bool, err error)

	// Invalidate removes the workflow/manifest keys for the current
	// version and drops the promotion from wf:index and wf:active.
	Invalidate(ctx context.Context, promotionID, country string) error
}
