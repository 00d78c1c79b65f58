// Package promotionengine is the composition root for the promotion
// engine's bounded contexts (catalog, promotion-store, promotion-cache,
// promotion-provider, authoring-compiler, runtime-evaluator,
// publisher): it wires their ports together and exposes the three HTTP
// handlers and two background workers the platform layer mounts.
package promotionengine

import (
	"context"
	"log/slog"
	"time"

	catalogmemory "promoengine/contexts/promotion-engine/catalog/adapters/memory"
	catalogports "promoengine/contexts/promotion-engine/catalog/ports"

	compilerapp "promoengine/contexts/promotion-engine/authoring-compiler/application"
	compilerhttpadapter "promoengine/contexts/promotion-engine/authoring-compiler/adapters/http"

	cachememory "promoengine/contexts/promotion-engine/promotion-cache/adapters/memory"
	cacheports "promoengine/contexts/promotion-engine/promotion-cache/ports"

	providerapp "promoengine/contexts/promotion-engine/promotion-provider/application"

	storememory "promoengine/contexts/promotion-engine/promotion-store/adapters/memory"
	storepostgres "promoengine/contexts/promotion-engine/promotion-store/adapters/postgres"
	storeports "promoengine/contexts/promotion-engine/promotion-store/ports"

	publisherapp "promoengine/contexts/promotion-engine/publisher/application"
	publisherhttpadapter "promoengine/contexts/promotion-engine/publisher/adapters/http"
	publisherworkers "promoengine/contexts/promotion-engine/publisher/application/workers"

	evaluatorapp "promoengine/contexts/promotion-engine/runtime-evaluator/application"
	evaluatorhttpadapter "promoengine/contexts/promotion-engine/runtime-evaluator/adapters/http"
	"promoengine/contexts/promotion-engine/runtime-evaluator/adapters/ruleengine"
	evaluatorworkers "promoengine/contexts/promotion-engine/runtime-evaluator/application/workers"
	evaluatorports "promoengine/contexts/promotion-engine/runtime-evaluator/ports"
)

// Module aggregates the HTTP handlers and background workers a
// platform wires up for the promotion engine.
type Module struct {
	AuthoringHandler compilerhttpadapter.Handler
	PublisherHandler publisherhttpadapter.Handler
	EvaluateHandler  evaluatorhttpadapter.Handler

	OutboxRelay       publisherworkers.OutboxRelay
	StaleGrantSweeper evaluatorworkers.StaleGrantSweeper

	// In-memory backing stores, populated only by NewInMemoryModule; nil
	// under a real (Postgres/Redis) wiring.
	CatalogStore   *catalogmemory.Store
	PromotionStore *storememory.Store
	CacheStore     *cachememory.Store
}

// Dependencies is the full set of ports a production wiring supplies.
// RuleEngineCacheCapacity, StaleGrantHorizon, OutboxBatchSize and
// OutboxMaxRetries default when zero.
type Dependencies struct {
	CatalogReader  catalogports.Reader
	Store          storeports.Repository
	Outbox         storeports.OutboxRepository
	Cache          cacheports.Cache
	SegmentService evaluatorports.SegmentService
	EventPublisher publisherworkers.EventPublisher

	Clock       storeports.Clock
	IDGenerator storeports.IDGenerator

	RuleEngineCacheCapacity int
	StaleGrantHorizon       time.Duration
	OutboxBatchSize         int
	OutboxMaxRetries        uint64

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	compiler := compilerapp.NewCompiler(deps.CatalogReader)
	draftUseCase := compilerapp.DraftUpsertUseCase{
		Compiler:    compiler,
		Store:       deps.Store,
		IDGenerator: deps.IDGenerator,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}

	provider := providerapp.NewService(deps.Cache, deps.Store, deps.Logger)

	engine := ruleengine.NewEngine(deps.RuleEngineCacheCapacity, deps.Logger)

	grantService := evaluatorapp.GrantService{
		Store:       deps.Store,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	evaluator := evaluatorapp.Evaluator{
		Provider:   provider,
		Segments:   deps.SegmentService,
		Store:      deps.Store,
		RuleEngine: engine,
		Grants:     grantService,
		Cache:      deps.Cache,
		Logger:     deps.Logger,
	}

	publisher := publisherapp.Publisher{
		Store:       deps.Store,
		Cache:       deps.Cache,
		IDGenerator: deps.IDGenerator,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}

	horizon := deps.StaleGrantHorizon
	if horizon <= 0 {
		horizon = 30 * 24 * time.Hour
	}

	return Module{
		AuthoringHandler: compilerhttpadapter.Handler{UseCase: draftUseCase},
		PublisherHandler: publisherhttpadapter.Handler{Publisher: publisher},
		EvaluateHandler:  evaluatorhttpadapter.Handler{Evaluator: evaluator},
		OutboxRelay: publisherworkers.OutboxRelay{
			Outbox:     deps.Outbox,
			Publisher:  deps.EventPublisher,
			Clock:      deps.Clock,
			BatchSize:  deps.OutboxBatchSize,
			MaxRetries: deps.OutboxMaxRetries,
			Logger:     deps.Logger,
		},
		StaleGrantSweeper: evaluatorworkers.StaleGrantSweeper{
			Store:   deps.Store,
			Clock:   deps.Clock,
			Horizon: horizon,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine entirely over in-process stores,
// for tests and local development.
func NewInMemoryModule(logger *slog.Logger) Module {
	catalogStore := catalogmemory.NewStore()
	promotionStore := storememory.NewStore()
	cacheStore := cachememory.NewStore()

	module := NewModule(Dependencies{
		CatalogReader:  catalogStore,
		Store:          promotionStore,
		Outbox:         promotionStore,
		Cache:          cacheStore,
		SegmentService: noopSegmentService{},
		EventPublisher: noopEventPublisher{},
		Clock:          storepostgres.SystemClock{},
		IDGenerator:    storepostgres.UUIDGenerator{},
		Logger:         logger,
	})
	module.CatalogStore = catalogStore
	module.PromotionStore = promotionStore
	module.CacheStore = cacheStore
	return module
}

// noopSegmentService reports no segment membership; used where no
// segment service is configured (local dev, tests). The segment gate
// (spec.md §4.5 step 1) only restricts when a promotion requires
// specific segments, so an empty set is a conservative default.
type noopSegmentService struct{}

func (noopSegmentService) SegmentsForContact(_ context.Context, _, _ string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

// noopEventPublisher accepts every publish; used where no event bus is
// configured (local dev, tests).
type noopEventPublisher struct{}

func (noopEventPublisher) Publish(_ context.Context, _ string, _ []byte) error {
	return nil
}
