package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terracurve/internal/api"
	"terracurve/internal/cache"
	"terracurve/internal/config"
	"terracurve/internal/database"
	"terracurve/internal/device"
	"terracurve/internal/editor"
	"terracurve/internal/events"
	"terracurve/internal/logging"
	"terracurve/internal/models"
	"terracurve/internal/profile"
	"terracurve/internal/seasonal"
	"terracurve/internal/server"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the panel configuration")
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

	routes, err := device.RoutesFor(cfg.Device.API)
	if err != nil {
		logger.Fatal("invalid device api", zap.Error(err))
	}
	gateway := device.NewClient(cfg.Device.BaseURL, routes,
		time.Duration(cfg.Device.TimeoutSeconds)*time.Second, logger.Named("device"))

	bounds, err := models.NewSafetyBounds(cfg.Safety.MinTemp, cfg.Safety.MaxTemp)
	if err != nil {
		logger.Fatal("invalid safety bounds", zap.Error(err))
	}
	store := seasonal.NewStore(bounds, cfg.Seasonal.DefaultTemperature)

	redisCfg := cfg.RedisSettings()
	redisClient := redis.NewClient(redisCfg.ClientOptions())
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Events and the weather cache degrade to logged warnings.
		logger.Warn("redis unavailable", zap.String("addr", redisCfg.Addr), zap.Error(err))
	}

	hub := events.NewHub(logger.Named("hub"))
	go hub.Run(ctx)
	publisher := events.Multi{hub, events.NewRedisPublisher(redisClient, redisCfg.Stream)}

	var (
		archive profile.Archive
		history server.History
	)
	if cfg.Archive.Enabled {
		db, err := database.NewDB(ctx, config.DatabaseDSN(), logger.Named("database"))
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()
		archive, history = db, db
	}

	weather := api.NewOpenMeteoClient()
	years := cache.NewYearCache(redisClient, weather,
		time.Duration(cfg.Weather.CacheTTLHours)*time.Hour, logger.Named("cache"))

	coord := profile.NewCoordinator(profile.Options{
		Gateway:   gateway,
		Store:     store,
		Events:    publisher,
		Archive:   archive,
		Weather:   weather,
		Years:     years,
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Log:       logger.Named("profile"),
	})

	plot := cfg.Server.Plot
	view, err := editor.NewView(editor.PlotArea{Left: plot.Left, Top: plot.Top, Right: plot.Right, Bottom: plot.Bottom})
	if err != nil {
		logger.Fatal("invalid plot area", zap.Error(err))
	}

	if live, err := gateway.GetCurrentConfig(ctx); err != nil {
		logger.Warn("controller unreachable at startup", zap.String("url", cfg.Device.BaseURL), zap.Error(err))
	} else {
		logger.Info("controller reachable", zap.String("active_profile", live.CurrentProfileName))
	}

	srv := server.NewServer(server.Options{
		Coordinator: coord,
		View:        view,
		CanvasWidth: cfg.Server.CanvasWidth,
		Hub:         hub,
		Events:      publisher,
		History:     history,
		FromYear:    cfg.Weather.StartYear,
		ToYear:      cfg.Weather.EndYear,
		Log:         logger.Named("http"),
	})

	logger.Info("starting panel server", zap.String("addr", cfg.Server.Addr))
	if err := srv.Start(ctx, cfg.Server.Addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("panel server stopped")
}
