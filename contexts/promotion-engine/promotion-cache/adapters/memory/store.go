// Package memory is an in-process Cache double: the local-boot fallback
// and the test substitute for the redis adapter, following the
// teacher's adapters/memory idiom of doubling as both.
package memory

import (
	"context"
	"strings"
	"sync"

	"promoengine/contexts/promotion-engine/promotion-cache/ports"
)

type workflowKey struct {
	promotionID string
	country     string
	version     int
}

// Store is a mutex-guarded in-memory Cache. It mirrors the redis
// adapter's key layout as Go maps instead of literal Redis keys.
type Store struct {
	mu sync.RWMutex

	workflows map[workflowKey]ports.Entry
	index     map[string]map[string]int // country -> promotionID -> latest version
	active    map[string]map[string]struct{}
	metadata  map[string]map[string]string
}

func NewStore() *Store {
	return &Store{
		workflows: make(map[workflowKey]ports.Entry),
		index:     make(map[string]map[string]int),
		active:    make(map[string]map[string]struct{}),
		metadata:  make(map[string]map[string]string),
	}
}

func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

func (s *Store) Warm(_ context.Context, entry ports.Entry) error {
	country := normalizeCountry(entry.Country)
	s.mu.Lock()
	defer s.mu.Unlock()

	key := workflowKey{promotionID: entry.PromotionID, country: country, version: entry.Version}
	s.workflows[key] = entry

	if s.index[country] == nil {
		s.index[country] = make(map[string]int)
	}
	if current, ok := s.index[country][entry.PromotionID]; !ok || entry.Version > current {
		s.index[country][entry.PromotionID] = entry.Version
	}

	if s.active[country] == nil {
		s.active[country] = make(map[string]struct{})
	}
	s.active[country][entry.PromotionID] = struct{}{}

	if entry.Metadata != nil {
		s.metadata[entry.PromotionID] = entry.Metadata
	}
	return nil
}

func (s *Store) ActivePromotions(_ context.Context, country string) ([]string, error) {
	country = normalizeCountry(country)
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.active[country]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) GetWorkflow(_ context.Context, promotionID, country string, version int) ([]byte, []byte, int, bool, error) {
	country = normalizeCountry(country)
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolved := version
	if resolved == 0 {
		byCountry, ok := s.index[country]
		if !ok {
			return nil, nil, 0, false, nil
		}
		latest, ok := byCountry[promotionID]
		if !ok {
			return nil, nil, 0, false, nil
		}
		resolved = latest
	}

	entry, ok := s.workflows[workflowKey{promotionID: promotionID, country: country, version: resolved}]
	if !ok {
		return nil, nil, 0, false, nil
	}
	return entry.Workflow, entry.Manifest, resolved, true, nil
}

func (s *Store) Invalidate(_ context.Context, promotionID, country string) error {
	country = normalizeCountry(country)
	s.mu.Lock()
	defer s.mu.Unlock()

	if byCountry, ok := s.index[country]; ok {
		if version, ok := byCountry[promotionID]; ok {
			delete(s.workflows, workflowKey{promotionID: promotionID, country: country, version: version})
		}
		delete(byCountry, promotionID)
	}
	if members, ok := s.active[country]; ok {
		delete(members, promotionID)
	}
	return nil
}
