package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"terracurve/internal/config"
	"terracurve/internal/device"
	"terracurve/internal/logging"
	"terracurve/internal/models"
	"terracurve/internal/profile"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the panel configuration")
	dir := flag.String("dir", "profiles", "directory of exported profile .json files")
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
	gw := device.NewClient(cfg.Device.BaseURL, routes,
		time.Duration(cfg.Device.TimeoutSeconds)*time.Second, logger.Named("device"))

	files, err := profileFiles(*dir)
	if err != nil {
		logger.Fatal("failed to list profiles", zap.String("dir", *dir), zap.Error(err))
	}
	logger.Info("seeding controller", zap.String("url", cfg.Device.BaseURL), zap.Int("files", len(files)))

	count, skipped := 0, 0
	for _, path := range files {
		name, err := seedFile(ctx, gw, path, cfg.Safety, cfg.Seasonal.DefaultTemperature, logger)
		if err != nil {
			var partial *profile.PartialSaveError
			if errors.As(err, &partial) {
				logger.Error("profile stored without seasonal data", zap.String("file", path), zap.Error(err))
			} else {
				logger.Warn("skipping profile", zap.String("file", path), zap.Error(err))
			}
			skipped++
			continue
		}
		logger.Info("profile stored", zap.String("profile", name))
		count++
	}

	logger.Info("seed complete", zap.Int("stored", count), zap.Int("skipped", skipped))
}

// profileFiles lists *.json files in dir, sorted.
func profileFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .json profiles in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// seedFile imports one document into a fresh session and saves it to the
// controller under the document's name.
func seedFile(ctx context.Context, gw profile.Gateway, path string, safety config.SafetyConfig, fill float64, log *zap.Logger) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	bounds, err := models.NewSafetyBounds(safety.MinTemp, safety.MaxTemp)
	if err != nil {
		return "", err
	}
	coord := profile.NewCoordinator(profile.Options{
		Gateway: gw,
		Store:   seasonal.NewStore(bounds, fill),
		Log:     log,
	})

	imported, err := coord.Import(ctx, f)
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	res, err := coord.SaveProfile(ctx, imported.Name)
	if err != nil {
		return imported.Name, err
	}
	if res.Clamped > 0 {
		log.Warn("values clamped to int16 range", zap.String("profile", res.Name), zap.Int("count", res.Clamped))
	}
	return res.Name, nil
}
