package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"terracurve/internal/config"
	"terracurve/internal/database"
	"terracurve/internal/events"
	"terracurve/internal/logging"
	"terracurve/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const consumerGroup = "archive_consumers"

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the panel configuration")
	consumerName := flag.String("name", "consumer-1", "consumer name within the group")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCfg := cfg.RedisSettings()
	redisClient := redis.NewClient(redisCfg.ClientOptions())
	defer redisClient.Close()

	db, err := database.NewDB(ctx, config.DatabaseDSN(), logger.Named("database"))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	consumer := events.NewConsumer(redisClient, redisCfg.Stream, consumerGroup, *consumerName, logger.Named("consumer"))

	logger.Info("archiving panel events, press Ctrl+C to stop",
		zap.String("stream", redisCfg.Stream),
		zap.String("group", consumerGroup))

	err = consumer.Run(ctx, func(ctx context.Context, batch []models.Event) error {
		if err := db.StoreEvents(ctx, batch); err != nil {
			return err
		}
		logger.Debug("stored events", zap.Int("count", len(batch)))
		return nil
	})
	if err != nil {
		logger.Fatal("consumer failed", zap.Error(err))
	}
	logger.Info("store service stopped")
}
