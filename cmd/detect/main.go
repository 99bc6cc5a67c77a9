package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"terracurve/internal/codec"
	"terracurve/internal/detector"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

// DetectionResult holds the results for a single seasonal file
type DetectionResult struct {
	Profile        string
	Anomalies      []models.Anomaly
	Suggestions    []models.SmoothingSuggestion
	Error          error
	ProcessingTime time.Duration
}

func main() {
	workers := flag.Int("workers", 8, "number of files checked in parallel")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatalf("usage: detect [-workers n] <profile.bin>...")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	results := runDetection(paths, *workers, detector.NewAnomalyDetector(logger), detector.NewSmoothingSuggester())

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			fmt.Printf("%s: %v\n", r.Profile, r.Error)
			failed++
			continue
		}
		fmt.Printf("=== %s: %d anomalies (%.2fs) ===\n", r.Profile, len(r.Anomalies), r.ProcessingTime.Seconds())
		for _, a := range r.Anomalies {
			fmt.Printf("  %-7s | avg %5.1f | z %6.2f | %s\n", models.DayLabel(a.Day), a.Average, a.ZScore, a.Severity)
		}
		for _, s := range r.Suggestions {
			fmt.Printf("  suggestion (%.2f): %s\n", s.Confidence, s.Description)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runDetection checks every file with a worker pool and returns results in
// input order.
func runDetection(paths []string, numWorkers int, ad *detector.AnomalyDetector, ss *detector.SmoothingSuggester) []DetectionResult {
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	type job struct {
		index int
		path  string
	}
	jobs := make(chan job, len(paths))
	results := make([]DetectionResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = detectFile(j.path, ad, ss)
			}
		}()
	}

	for i, p := range paths {
		jobs <- job{index: i, path: p}
	}
	close(jobs)
	wg.Wait()
	return results
}

func detectFile(path string, ad *detector.AnomalyDetector, ss *detector.SmoothingSuggester) DetectionResult {
	start := time.Now()
	res := DetectionResult{Profile: profileName(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err
		return res
	}
	m, err := codec.Decode(data)
	if err != nil {
		res.Error = err
		return res
	}

	// Detection only reads the matrix; bounds are never applied.
	store := seasonal.NewStore(&models.SafetyBounds{}, models.DefaultTemperature)
	store.Load(m)
	if res.Anomalies, err = ad.DetectAnomalies(store); err != nil {
		res.Error = err
		return res
	}
	res.Suggestions = ss.SuggestSmoothing(res.Anomalies)
	res.ProcessingTime = time.Since(start)
	return res
}

func profileName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
