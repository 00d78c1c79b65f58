package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"promoengine/internal/app/bootstrap"
)

const (
	outboxRelayInterval       = 5 * time.Second
	staleGrantSweeperInterval = 15 * time.Minute
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start the outbox relay and stale-grant sweeper on independent
//    ticker loops until signalled to stop.
func main() {
	log.Println("promotion engine worker starting")

	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runTicker(ctx, outboxRelayInterval, "outbox_relay", func(ctx context.Context) error {
		return app.Module.OutboxRelay.RunOnce(ctx)
	})
	go runTicker(ctx, staleGrantSweeperInterval, "stale_grant_sweeper", func(ctx context.Context) error {
		return app.Module.StaleGrantSweeper.RunOnce(ctx)
	})

	<-ctx.Done()
	log.Println("promotion engine worker stopping")
}

func runTicker(ctx context.Context, interval time.Duration, name string, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				log.Printf("%s run failed: %v", name, err)
			}
		}
	}
}
