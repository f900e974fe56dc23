package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	recordv1 "github.com/muhammadchandra19/tickstream/internal/domain/record/v1"
	recordInfra "github.com/muhammadchandra19/tickstream/internal/infrastructure/postgres/record"
	"github.com/muhammadchandra19/tickstream/internal/infrastructure/redis/eventbus"
	"github.com/muhammadchandra19/tickstream/pkg/config"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
)

// seed loads symbol records into the store and announces the load on
// the event bus, which lets a running pipeline re-check readiness
// immediately instead of waiting for the next poll.
func main() {
	var (
		symbolsFlag = flag.String("symbols", "", "comma-separated symbols, defaults to the configured set")
		perSymbol   = flag.Int("records", 1, "records to insert per symbol")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger()
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	client, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	symbols := cfg.Pipeline.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	records := make([]recordv1.SymbolRecord, 0, len(symbols)*(*perSymbol))
	for _, symbol := range symbols {
		for i := 0; i < *perSymbol; i++ {
			records = append(records, recordv1.SymbolRecord{
				Symbol:   strings.TrimSpace(symbol),
				Price:    cfg.Pipeline.InitialPrice * (0.5 + rnd.Float64()),
				Volume:   cfg.Pipeline.Volume,
				LoadedAt: now,
			})
		}
	}

	repo := recordInfra.NewRepository(client)
	stored, err := repo.StoreBatch(ctx, records)
	if err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "seed"})
		os.Exit(1)
	}

	total, err := repo.CountRecords(ctx)
	if err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "seed"})
		os.Exit(1)
	}
	log.Info("seeded symbol records",
		logger.Field{Key: "symbols", Value: symbols},
		logger.Field{Key: "stored", Value: stored},
		logger.Field{Key: "totalRecords", Value: total},
	)

	redisClient := redis.NewClient(log, &cfg.Redis.Config)
	if err := redisClient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "redis"})
		os.Exit(1)
	}
	defer redisClient.Disconnect(ctx)

	publisher := eventbus.NewPublisher(redisClient, cfg.Redis.Channel, log)
	event := eventv1.NewEvent(eventv1.TypeStockDataLoaded, eventv1.SourceAPIServer, map[string]any{
		"symbols": symbols,
		"records": stored,
	})
	if err := publisher.Publish(ctx, event); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "event_bus"})
		os.Exit(1)
	}

	log.Info("announced data load on event bus")
}
