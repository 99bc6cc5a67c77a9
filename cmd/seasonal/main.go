package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"terracurve/internal/api"
	"terracurve/internal/cache"
	"terracurve/internal/codec"
	"terracurve/internal/config"
	"terracurve/internal/device"
	"terracurve/internal/logging"
	"terracurve/internal/profile"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type options struct {
	name   string
	lat    float64
	long   float64
	from   int
	to     int
	outDir string
	upload bool
}

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the panel configuration")
	var opts options
	flag.StringVar(&opts.name, "name", "", "profile name; the output is <name>.bin")
	flag.Float64Var(&opts.lat, "lat", 0, "latitude (defaults to weather.latitude)")
	flag.Float64Var(&opts.long, "long", 0, "longitude (defaults to weather.longitude)")
	flag.IntVar(&opts.from, "from", 0, "first archive year (defaults to weather.start_year)")
	flag.IntVar(&opts.to, "to", 0, "last archive year (defaults to weather.end_year)")
	flag.StringVar(&opts.outDir, "out", ".", "output directory")
	flag.BoolVar(&opts.upload, "upload", false, "also upload the result to the controller under -name")
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

	opts = withDefaults(opts, cfg.Weather)
	if err := opts.validate(); err != nil {
		logger.Fatal("invalid arguments", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCfg := cfg.RedisSettings()
	redisClient := redis.NewClient(redisCfg.ClientOptions())
	defer redisClient.Close()
	years := cache.NewYearCache(redisClient, api.NewOpenMeteoClient(),
		time.Duration(cfg.Weather.CacheTTLHours)*time.Hour, logger.Named("cache"))

	logger.Info("fetching archive years",
		zap.Float64("latitude", opts.lat),
		zap.Float64("longitude", opts.long),
		zap.Int("from", opts.from),
		zap.Int("to", opts.to))

	start := time.Now()
	matrix, readings, err := profile.Generate(ctx, years, opts.lat, opts.long, opts.from, opts.to)
	if err != nil {
		logger.Fatal("failed to generate seasonal data", zap.Error(err))
	}
	blob, clamped := codec.Encode(matrix)
	if clamped > 0 {
		logger.Warn("values clamped to int16 range", zap.Int("count", clamped))
	}

	path := outputPath(opts.outDir, opts.name)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		logger.Fatal("failed to write seasonal file", zap.String("path", path), zap.Error(err))
	}
	logger.Info("seasonal file written",
		zap.String("path", path),
		zap.Int("readings", readings),
		zap.Duration("took", time.Since(start)))

	if !opts.upload {
		return
	}
	routes, err := device.RoutesFor(cfg.Device.API)
	if err != nil {
		logger.Fatal("invalid device api", zap.Error(err))
	}
	gw := device.NewClient(cfg.Device.BaseURL, routes,
		time.Duration(cfg.Device.TimeoutSeconds)*time.Second, logger.Named("device"))
	if err := gw.UploadYearly(ctx, opts.name, blob); err != nil {
		logger.Fatal("upload failed", zap.String("profile", opts.name), zap.Error(err))
	}
	logger.Info("seasonal data uploaded", zap.String("profile", opts.name))
}

// withDefaults fills unset flags from the weather section.
func withDefaults(o options, w config.WeatherConfig) options {
	if o.lat == 0 && o.long == 0 {
		o.lat, o.long = w.Latitude, w.Longitude
	}
	if o.from == 0 {
		o.from = w.StartYear
	}
	if o.to == 0 {
		o.to = w.EndYear
	}
	return o
}

func (o options) validate() error {
	if err := profile.ValidateName(o.name); err != nil {
		return fmt.Errorf("-name: %w", err)
	}
	if o.lat < -90 || o.lat > 90 || o.long < -180 || o.long > 180 {
		return fmt.Errorf("location %.4f,%.4f out of range", o.lat, o.long)
	}
	if o.from > o.to {
		return fmt.Errorf("year range %d..%d is inverted", o.from, o.to)
	}
	if o.to >= time.Now().Year() {
		return fmt.Errorf("year %d is not complete in the archive", o.to)
	}
	return nil
}

func outputPath(dir, name string) string {
	return filepath.Join(dir, name+".bin")
}
