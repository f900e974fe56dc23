package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadchandra19/tickstream/internal/bootstrap"
	"github.com/muhammadchandra19/tickstream/pkg/config"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	pg, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "postgres"})
		os.Exit(1)
	}
	defer pg.Close()

	redisClient := redis.NewClient(log, &cfg.Redis.Config)
	if err := redisClient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "redis"})
		os.Exit(1)
	}
	defer redisClient.Disconnect(ctx)

	app := (&bootstrap.Bootstrap{}).Init(bootstrap.BootstrapConfig{
		Config:   cfg,
		Logger:   log,
		Postgres: pg,
		Redis:    redisClient,
	})
	defer app.Usecase.TickLog.Close()

	if err := app.Usecase.Pipeline.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "pipeline"})
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: app.RPC.Server.Router(),
	}

	go func() {
		log.Info("ops server listening", logger.Field{Key: "addr", Value: httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, logger.Field{Key: "component", Value: "ops_server"})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "ops_server"})
	}
	if err := app.Usecase.Pipeline.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "pipeline"})
	}
	if err := app.Usecase.Subscriber.Close(); err != nil {
		log.Error(err, logger.Field{Key: "component", Value: "event_subscriber"})
	}

	log.Info("shutdown complete")
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	opts := []logger.Options{
		logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)),
	}
	if cfg.App.LogFile != "" {
		opts = append(opts, logger.WithRotatingFile(cfg.App.LogFile, 100, 5, 30))
	}
	return logger.NewLogger(opts...)
}
