// Package application implements the Promotion Provider's unified read
// path: cache-first, store-fallback, window-filtered (spec.md §4.3).
package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"promoengine/contexts/promotion-engine/promotion-provider/domain"
	"promoengine/contexts/promotion-engine/promotion-provider/ports"
)

// Service implements the Provider.
type Service struct {
	cache  ports.Cache
	store  ports.Store
	logger *slog.Logger
}

func NewService(cache ports.Cache, store ports.Store, logger *slog.Logger) *Service {
	return &Service{cache: cache, store: store, logger: resolveLogger(logger)}
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// ActivePromotions returns the active (promotion, version) pairs for
// country at asOf, following the cache-first/store-fallback contract.
func (s *Service) ActivePromotions(ctx context.Context, countryISO string, asOf time.Time) ([]domain.ActivePromotion, error) {
	country := strings.ToUpper(strings.TrimSpace(countryISO))

	results, ok := s.fromCache(ctx, country, asOf)
	if ok {
		return results, nil
	}
	return s.fromStore(ctx, country, asOf)
}

// fromCache implements steps 1-4 of §4.3. ok is false whenever the
// cache returned empty or errored, signalling the caller to fall
// through to the store per step 5.
func (s *Service) fromCache(ctx context.Context, country string, asOf time.Time) ([]domain.ActivePromotion, bool) {
	ids, err := s.cache.ActivePromotions(ctx, country)
	if err != nil {
		s.logger.Warn("promotion cache active-set lookup failed",
			"event", "cache_active_error", "module", "promotion-provider", "layer", "application",
			"country", country, "error", err)
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}

	type candidate struct {
		promotionID string
		workflow    []byte
		manifest    []byte
		version     int
		manifestDoc domain.Manifest
	}

	candidates := make([]candidate, 0, len(ids))
	for _, id := range ids {
		workflow, manifest, version, ok, err := s.cache.GetWorkflow(ctx, id, country, 0)
		if err != nil || !ok {
			continue
		}
		manifestDoc, err := domain.ParseManifest(manifest)
		if err != nil {
			// Window filtering cannot proceed without a manifest;
			// spec.md §4.3 step 3 drops entries whose window cannot be
			// evaluated rather than guessing.
			continue
		}
		if !manifestDoc.Window.ActiveAt(asOf) {
			continue
		}
		candidates = append(candidates, candidate{
			promotionID: id, workflow: workflow, manifest: manifest, version: version, manifestDoc: manifestDoc,
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	results := make([]domain.ActivePromotion, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		group.Go(func() error {
			promotion, found, err := s.store.GetPromotion(groupCtx, c.promotionID)
			if err != nil || !found {
				return nil
			}
			version, found, err := s.store.LatestVersion(groupCtx, c.promotionID, country)
			if err != nil || !found {
				return nil
			}
			results[i] = domain.ActivePromotion{
				Promotion: promotion,
				Version:   version,
				Workflow:  c.workflow,
				Manifest:  c.manifest,
				FromCache: true,
			}
			return nil
		})
	}
	_ = group.Wait()

	out := make([]domain.ActivePromotion, 0, len(results))
	for _, r := range results {
		if r.Promotion.PromotionID != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// fromStore is the authoritative fallback: the store's own query
// applies the same window filter in SQL (spec.md §4.3 step 5).
func (s *Service) fromStore(ctx context.Context, country string, asOf time.Time) ([]domain.ActivePromotion, error) {
	rows, err := s.store.ActivePromotions(ctx, country, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ActivePromotion, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ActivePromotion{
			Promotion: row.Promotion,
			Version:   row.Version,
			Workflow:  row.Version.WorkflowPayload,
			Manifest:  row.Version.ManifestPayload,
			FromCache: false,
		})
	}
	return out, nil
}
