// Package bootstrap is the composition root: it builds the infra
// adapters (Postgres, Redis, Kafka, the segment HTTP client) and wires
// them into the promotion-engine module, then into the HTTP server.
package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"gorm.io/gorm"

	promotionengine "promoengine/contexts/promotion-engine"
	catalogpostgres "promoengine/contexts/promotion-engine/catalog/adapters/postgres"
	cacheredis "promoengine/contexts/promotion-engine/promotion-cache/adapters/redis"
	storepostgres "promoengine/contexts/promotion-engine/promotion-store/adapters/postgres"
	segmentadapter "promoengine/contexts/promotion-engine/runtime-evaluator/adapters/segment"

	"promoengine/internal/platform/cacheclient"
	"promoengine/internal/platform/config"
	"promoengine/internal/platform/db"
	"promoengine/internal/platform/httpserver"
	"promoengine/internal/platform/messaging"
)

// APIApp is the wired HTTP process.
type APIApp struct {
	Server *httpserver.Server
}

func (a *APIApp) Run(ctx context.Context) error {
	return a.Server.Start()
}

func (a *APIApp) Close() error {
	return a.Server.Shutdown(context.Background())
}

// WorkerApp is the wired background-worker process: the outbox relay
// and the stale-grant sweeper, both driven by cmd/worker's ticker loop.
type WorkerApp struct {
	Module promotionengine.Module
	Kafka  *messaging.Kafka
}

func (a *WorkerApp) Close() error {
	if a.Kafka != nil {
		return a.Kafka.Close()
	}
	return nil
}

func newLogger(serviceName string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
}

func connectDeps(cfg config.Config, logger *slog.Logger) (*gorm.DB, promotionengine.Module, *messaging.Kafka, error) {
	conn, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, promotionengine.Module{}, nil, err
	}

	redisClient, err := cacheclient.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, promotionengine.Module{}, nil, err
	}

	kafkaPublisher, err := messaging.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
	if err != nil {
		return nil, promotionengine.Module{}, nil, err
	}

	storeRepo := storepostgres.NewRepository(conn)
	catalogRepo := catalogpostgres.NewRepository(conn)
	cacheStore := cacheredis.NewStore(redisClient, cacheredis.WithKeyExpiry(cfg.CacheKeyTTL), cacheredis.WithLogger(logger))
	segmentClient := segmentadapter.NewClient(cfg.SegmentServiceBaseURL, cfg.SegmentServiceTimeout)

	module := promotionengine.NewModule(promotionengine.Dependencies{
		CatalogReader:           catalogRepo,
		Store:                   storeRepo,
		Outbox:                  storeRepo,
		Cache:                   cacheStore,
		SegmentService:          segmentClient,
		EventPublisher:          kafkaPublisher,
		Clock:                   storepostgres.SystemClock{},
		IDGenerator:             storepostgres.UUIDGenerator{},
		RuleEngineCacheCapacity: cfg.RuleEngineCacheCapacity,
		StaleGrantHorizon:       cfg.StaleGrantHorizon,
		OutboxBatchSize:         cfg.OutboxBatchSize,
		OutboxMaxRetries:        cfg.OutboxMaxRetries,
		Logger:                  logger,
	})

	return conn, module, kafkaPublisher, nil
}

// BuildAPI wires the promotion-engine module over real infra and
// returns a process ready to serve HTTP.
func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceName)

	_, module, _, err := connectDeps(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, ":"+cfg.HTTPPort)
	return &APIApp{Server: server}, nil
}

// BuildWorker wires the promotion-engine module for the background
// worker process (outbox relay + stale-grant sweeper).
func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceName)

	_, module, kafkaPublisher, err := connectDeps(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{Module: module, Kafka: kafkaPublisher}, nil
}
