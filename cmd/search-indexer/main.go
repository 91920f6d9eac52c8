package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/search/application"
	searchredis "github.com/dmehra2102/storefront/internal/search/infrastructure/redis"
	"github.com/dmehra2102/storefront/pkg/bus"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func main() {
	log := logging.New("search-indexer")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	kafkaBrokers := []string{env("KAFKA_ADDR", "localhost:9092")}
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	otlpURL := env("OTLP_URL", "http://localhost:4318")
	productEventsTopic := env("PRODUCT_EVENTS_TOPIC", "product.events")

	tp, err := tracing.Init(ctx, "search-indexer", otlpURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	idem := idempotency.NewStore(rdb, 10*time.Minute)

	writer := bus.NewWriter(kafkaBrokers)
	defer writer.Close()

	index := searchredis.NewIndex(rdb)
	projector := application.NewProjector(log, index)

	productEvents := bus.NewConsumer(log, kafkaBrokers, productEventsTopic, "search-indexer", writer, idem)
	projector.Register(productEvents)

	if err := productEvents.Run(ctx); err != nil && err != context.Canceled {
		log.Error("consumer stopped", "err", err)
	}
	log.Info("search-indexer shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
