// cmd/historian/main.go drains the Redis action queue into Postgres.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/fourrow/internal/cache"
	"github.com/jason-s-yu/fourrow/internal/config"
	"github.com/jason-s-yu/fourrow/internal/database"
	"github.com/jason-s-yu/fourrow/internal/historian"
	"github.com/jason-s-yu/fourrow/internal/server"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := server.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.QueueName, cfg.SnapshotTTL)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer queue.Close()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	hs := historian.NewService(queue, db, historian.Options{
		BatchSize:  cfg.BatchSize,
		FlushDelay: cfg.FlushDelay,
		Inactivity: cfg.InactivityTimeout,
	}, logger)
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
