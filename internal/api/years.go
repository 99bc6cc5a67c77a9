package api

import (
	"context"
	"fmt"
	"sync"

	"terracurve/internal/models"
)

// YearSource supplies a year of hourly readings for a location.
type YearSource interface {
	YearHourly(ctx context.Context, lat, long float64, year int) (*models.Forecast, error)
}

// FetchYears downloads every year in [from, to] concurrently. Results are in
// year order; the first error wins.
func FetchYears(ctx context.Context, src YearSource, lat, long float64, from, to int) ([]*models.Forecast, error) {
	if from > to {
		return nil, fmt.Errorf("FetchYears: start year %d after end year %d", from, to)
	}

	results := make([]*models.Forecast, to-from+1)
	errs := make([]error, len(results))

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = src.YearHourly(ctx, lat, long, from+i)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", from+i, err)
		}
	}
	return results, nil
}
